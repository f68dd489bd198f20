// Command sentinel is the policy-as-engine compliance daemon.
//
// Usage:
//
//	sentinel run                       Start the decision API server
//	sentinel check --request req.json  Evaluate one request from the command line
//	sentinel lint --dir rules/         Validate rule files
//	sentinel decisions query           Query the recorded decision trail
//	sentinel version                   Print version information
//
// Run 'sentinel <command> --help' for details on each command.
package main

func main() {
	Execute()
}
