// Package app wires the option scoring service together and manages its
// lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, the YAML file and OPTIONRANK_ variables
//  2. Initialize logging and OpenTelemetry (tracing and Prometheus metrics)
//  3. Build the scorer and the pipeline around it
//  4. Create the chain store, scoring and health services
//  5. Mount the middleware chain and HTTP handlers
//  6. Configure the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Tests and embedders call New with an explicit configuration, logger and
// base directory and drive Router directly.
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then stops accepting connections,
// waits for in-flight requests up to the configured shutdown timeout and
// flushes the OpenTelemetry providers.
package app
