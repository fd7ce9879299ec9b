package service

import "errors"

// Sentinel errors for the service layer.
var (
	ErrMissingInput            = errors.New("missing input")
	ErrInvalidUploadResource   = errors.New("upload resource must contain a name and a base64 value")
	ErrMalformedPayload        = errors.New("payload must be in the form data:<mime-type>;base64,<body>")
	ErrInvalidFileType         = errors.New("file type is not allowed")
	ErrInvalidFileSize         = errors.New("file exceeds maximum allowed size")
	ErrUnknownRenamePolicy     = errors.New("unknown rename policy")
	ErrUnknownPreset           = errors.New("unknown sharing preset")
	ErrInvalidSharing          = errors.New("invalid sharing access or permission")
	ErrNotTextFile             = errors.New("content can only be replaced on text files")
	ErrUploadFolderUnavailable = errors.New("upload folder is not available")

	// ErrFileNotFound covers both trashed files and files the caller cannot view.
	ErrFileNotFound     = errors.New("file not found")
	ErrNoEditPermission = errors.New("no edit permission")
)
