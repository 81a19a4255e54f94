package crash

import (
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"slack-confessions/internal/logger"
)

// RecoverWithStack recovers from a panic and logs the full stack trace.
// Use as `defer crash.RecoverWithStack("module")`.
func RecoverWithStack(moduleName string) {
	if r := recover(); r != nil {
		stack := debug.Stack()

		logger.Errorf("PANIC in %s: %v", moduleName, r)
		logger.Errorf("Stack trace:\n%s", string(stack))

		// Also write to stderr so container logs capture it even if
		// the file logger is broken.
		fmt.Fprintf(os.Stderr, "[PANIC] %s - %s: %v\n", time.Now().Format("2006-01-02 15:04:05"), moduleName, r)
		fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", string(stack))
	}
}

// SafeGoroutine starts a goroutine that recovers and logs on panic.
func SafeGoroutine(name string, fn func()) {
	go func() {
		defer RecoverWithStack(fmt.Sprintf("goroutine-%s", name))
		fn()
	}()
}

// HTTPMiddleware converts a handler panic into a 500 response instead of
// taking down the server.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Errorf("PANIC serving %s %s: %v", r.Method, r.URL.Path, rec)
				logger.Errorf("Stack trace:\n%s", string(debug.Stack()))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
