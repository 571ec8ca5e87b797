package observe

import "fmt"

// keyString formats a key for span attributes.
func keyString(key any) string {
	if s, ok := key.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", key)
}
