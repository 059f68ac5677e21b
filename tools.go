//go:build tools

package tools

// Tool dependencies are not tracked here with blank imports.
// mockery is used as an installed binary; .mockery.yaml lists the
// interfaces whose mocks live under pkg/*/mocks.
