package scanner

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"imagecluster/database"
	"imagecluster/fingerprint"
	"imagecluster/imageprocessor"
	"imagecluster/logging"
	"imagecluster/types"
)

// lookupCached returns the cached fingerprint of an unchanged image
func lookupCached(db *sql.DB, path string, hasher imageprocessor.Hasher, fileInfo os.FileInfo) (fingerprint.Fingerprint, bool) {
	if db == nil {
		return fingerprint.Fingerprint{}, false
	}

	info, ok, err := database.LookupFingerprint(db, path, hasher.Name(), hasher.Bits(), fileInfo.ModTime())
	if err != nil {
		logging.LogWarning("Cache lookup failed for %s: %v", path, err)
		return fingerprint.Fingerprint{}, false
	}
	if !ok {
		return fingerprint.Fingerprint{}, false
	}

	fp, err := fingerprint.ParseHex(info.Fingerprint, info.Bits)
	if err != nil {
		logging.LogWarning("Ignoring corrupt cache entry for %s: %v", path, err)
		return fingerprint.Fingerprint{}, false
	}

	logging.DebugLog("Skipping unchanged image: %s", path)
	return fp, true
}

// storeCached records a freshly computed fingerprint. Cache write failures
// do not fail the image.
func storeCached(db *sql.DB, path string, hasher imageprocessor.Hasher, fileInfo os.FileInfo, width, height int, fp fingerprint.Fingerprint) {
	if db == nil {
		return
	}

	err := database.StoreFingerprint(db, types.ImageInfo{
		Path:        path,
		FileName:    filepath.Base(path),
		Format:      GetFileFormat(path),
		Width:       width,
		Height:      height,
		ModifiedAt:  fileInfo.ModTime().Format(time.RFC3339Nano),
		Size:        fileInfo.Size(),
		Algorithm:   hasher.Name(),
		Bits:        fp.Width(),
		Fingerprint: fp.String(),
	})
	if err != nil {
		logging.LogWarning("Cannot cache fingerprint of %s: %v", path, err)
	}
}
