// Package localrun supports invoking a lambda handler locally: the event is
// read from stdin as JSON and the response is written to stdout.
package localrun

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Requested reports whether the process was started with the --test flag.
func Requested(args []string) bool {
	return len(args) > 1 && args[1] == "--test"
}

// Run decodes a JSON event from stdin, invokes fn, and encodes the response
// to stdout. A .env file in the working directory is loaded first so local
// runs can carry the lambda's environment configuration.
func Run[E any, R any](fn func(context.Context, E) (R, error)) {
	_ = godotenv.Load()

	var event E
	if err := json.NewDecoder(os.Stdin).Decode(&event); err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding event: %v\n", err)
		os.Exit(1)
	}

	result, err := fn(context.Background(), event)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding response: %v\n", err)
		os.Exit(1)
	}
}
