package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
	FileTypeGIF FileType = "gif"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
	FileTypeGIF: "image/gif",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
	"image/gif":       FileTypeGIF,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
	"gif":  FileTypeGIF,
}

// UploadState is a phase of the upload pipeline. Transitions are strictly
// sequential: idle -> uploading -> extracting -> saving -> done, with failed
// reachable from any in-flight state. There is no retry and no restart of a
// partial run.
type UploadState string

const (
	UploadStateIdle       UploadState = "idle"
	UploadStateUploading  UploadState = "uploading"
	UploadStateExtracting UploadState = "extracting"
	UploadStateSaving     UploadState = "saving"
	UploadStateDone       UploadState = "done"
	UploadStateFailed     UploadState = "failed"
)
