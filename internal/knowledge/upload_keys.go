package knowledge

import (
	"path"
	"strings"

	"github.com/google/uuid"

	"sourcing-backend/internal/shared/util"
)

const uploadKeyRoot = "knowledge-uploads"

// UploadKey returns a fresh storage key for a conversation file the buyer
// uploads directly to the object store.
func UploadKey(userID, fileName string) (string, error) {
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(uploadKeyRoot, util.HashUserKey(userID), uuid.NewString(), sanitized), nil
}

// OwnsUploadKey reports whether key was issued by UploadKey for userID.
func OwnsUploadKey(userID, key string) bool {
	if userID == "" || strings.Contains(key, "..") {
		return false
	}
	prefix := path.Join(uploadKeyRoot, util.HashUserKey(userID)) + "/"
	rest, ok := strings.CutPrefix(key, prefix)
	if !ok {
		return false
	}
	parts := strings.Split(rest, "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}
