/*
Package atomicfile makes sure a converted file either appears at
its destination complete or doesn't appear at all.

Data is written to a temporary file next to the destination. Close()
syncs it and renames it over the destination. If Write() or Close()
fail, or Cancel() / RemoveIfNotClosed() is called first, the temporary
file is deleted and the destination is left as it was:

	func writePLY(path string, h *ply.Header, data map[string]ply.Rows) error {
		f, err := atomicfile.New(path)
		if err != nil {
			return err
		}
		// no-op after successful Close()
		defer f.RemoveIfNotClosed()

		if err = ply.Encode(f, h, data); err != nil {
			f.Cancel(err)
			return err
		}
		return f.Close()
	}
*/
package atomicfile
