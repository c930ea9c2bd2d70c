package storage

// StoreOpts carries per-object metadata set at write time.
type StoreOpts struct {
	ContentType  string
	CacheControl string
}

type StoreOpt func(*StoreOpts)

func StoreWithContentType(s string) StoreOpt {
	return func(opts *StoreOpts) { opts.ContentType = s }
}

func StoreWithCacheControl(s string) StoreOpt {
	return func(opts *StoreOpts) { opts.CacheControl = s }
}
