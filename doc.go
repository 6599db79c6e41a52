// Package ezark packs directory trees into single-file archives and
// unpacks them again.
//
// An archive is one byte stream with three parts and no separators:
//
//	<decimal index length><index text><blob>
//
// The index text is a compact JSON object mapping each label to a nested
// object (a directory), a [start,end] pair of blob offsets (a file), or
// null. The blob is the concatenation of every file's bytes in the order
// the files were packed:
//
//	29{"proj":{"readme.txt":[0,5]}}hello
//
// There is no compression, no checksum and no file metadata beyond names
// and tree shape.
//
// # Creating archives
//
// Create packs inputs and writes the archive to a file:
//
//	m, err := ezark.Create(ctx, "out.ezark", []string{"./proj", "notes.txt"},
//	    ezark.WithLogger(logger),
//	)
//
// Pack and WriteArchive split the same work into a walk that builds a
// [Manifest] and a pass that streams it to any io.Writer.
//
// # Reading archives
//
// OpenFile reads the header and index and serves blob bytes on demand:
//
//	af, err := ezark.OpenFile("out.ezark")
//	if err != nil {
//	    return err
//	}
//	defer af.Close()
//
//	if err := af.PrintTree(os.Stdout); err != nil {
//	    return err
//	}
//	stats, err := af.Extract(ctx, "restore", ezark.ExtractWithWorkers(4))
package ezark
