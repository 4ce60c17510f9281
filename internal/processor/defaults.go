package processor

// DefaultRegistry is the processor set compiled into the bundlego binary.
// Registration order is pipeline order.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterPre(NewBanner())
	r.RegisterPre(NewCSSImport())
	r.RegisterPost(NewStamp())
	return r
}
