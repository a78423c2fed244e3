package server

// ANSI colours for the development route log
const (
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m" // Bright black, often appears as gray

	ResetColor = "\033[0m" // Reset to default color
)

var methodColors = map[string]string{
	"GET":     Green,
	"POST":    Blue,
	"PUT":     Cyan,
	"DELETE":  Yellow,
	"PATCH":   Magenta,
	"OPTIONS": Gray,
}
