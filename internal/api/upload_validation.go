package api

import (
	"path/filepath"
	"strings"
)

var allowedAttachmentExtensions = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".txt":  {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

func allowedAttachment(filename string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if ext == "" {
		return false
	}
	_, ok := allowedAttachmentExtensions[ext]
	return ok
}
