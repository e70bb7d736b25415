package types

// ImageInfo is the cached fingerprint record of one image
type ImageInfo struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	FileName    string `json:"file_name"`
	Format      string `json:"format"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	CreatedAt   string `json:"created_at"`
	ModifiedAt  string `json:"modified_at"`
	Size        int64  `json:"size"`
	Algorithm   string `json:"algorithm"`
	Bits        int    `json:"bits"`
	Fingerprint string `json:"fingerprint"`
}

// ScanStats summarizes one fingerprinting pass
type ScanStats struct {
	Listed    int
	Processed int
	Failed    int
	Cached    int
}
