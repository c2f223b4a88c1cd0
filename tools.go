//go:build tools

package tools

// awslambdarpc is used to invoke the lambdas locally over the Lambda RPC
// interface during development.
import (
	_ "github.com/blmayer/awslambdarpc"
)
