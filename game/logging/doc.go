// Package logging adapts zerolog to the controller's Logger capability.
//
//	logger := logging.New(log.Logger)
//	ctrl := controller.New(logger, rules.Default())
//
// Each Log call holds the adapter's lock only while the single event is
// written.
package logging
