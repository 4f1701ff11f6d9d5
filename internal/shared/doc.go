// Package shared holds helpers used across the optionrank packages.
//
// The testutil subpackage provides the slog capture handler used by the
// package tests and deterministic option chain fixtures:
//
//	logger, logs := testutil.NewTestLogger(t)
//	snap := testutil.SampleChain()
//	res, err := pipeline.New(scorer, logger, pipeline.Options{}).Run(ctx, snap, domain.DirectionSellPut, pipeline.DefaultFilters())
//
// It must not contain business logic.
package shared
