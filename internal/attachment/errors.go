package attachment

import "fmt"

// UnsupportedImageError is returned when the bytes are not a decodable image.
type UnsupportedImageError struct {
	Cause error
}

func (e *UnsupportedImageError) Error() string {
	return fmt.Sprintf("unsupported image: %v", e.Cause)
}

func (e *UnsupportedImageError) Unwrap() error { return e.Cause }

func (e *UnsupportedImageError) InvalidInput() bool { return true }

// InvalidPathError is returned when a stored reference escapes the attachment root.
type InvalidPathError struct {
	Path string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("attachment path escapes root: %s", e.Path)
}

func (e *InvalidPathError) InvalidInput() bool { return true }
