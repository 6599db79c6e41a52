package ezark

// Stats summarizes the contents of an archive.
type Stats struct {
	// Files is the number of file nodes in the index.
	Files int

	// Dirs is the number of directory nodes in the index.
	Dirs int

	// IndexSize is the length of the index text in bytes.
	IndexSize int64

	// BlobSize is the length of the blob in bytes.
	BlobSize int64

	// ContentSize is the sum of all file range lengths. It equals BlobSize
	// for archives written by this package.
	ContentSize uint64
}

// Stats returns counts and sizes for the archive.
// The index is walked on first call; the result is cached.
func (a *Archive) Stats() Stats {
	a.statsOnce.Do(func() {
		s := Stats{
			IndexSize: a.header.IndexLen,
			BlobSize:  a.header.BlobLen,
		}
		s.Files, s.Dirs = a.index.Counts()
		for _, r := range a.index.Ranges() {
			s.ContentSize += r.Len()
		}
		a.stats = s
	})
	return a.stats
}
