// Package storage keeps the photos downloaded during an export.
//
// Every photo is written once under a fresh uuid-based name in the export's
// temporary directory, keeping the extension of the source URL. Writes go to
// a temporary file first and are renamed into place, so a crashed export
// never leaves a truncated image behind under its final name.
//
//	photos, err := storage.NewManager(dir)
//	if err != nil {
//	    return err
//	}
//	path, err := photos.SavePhoto(data, storage.ExtensionFromURL(src))
package storage
