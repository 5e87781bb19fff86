//go:build !linux && !windows

package platform

func newStartupAdapter(Options) StartupAdapter { return unsupported{} }

func newContextMenuAdapter(Options) ContextMenuAdapter { return unsupported{} }
