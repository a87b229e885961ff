// Package models defines the wire types exchanged with the SkyDrive API.
package models

import "time"

// File is a stored file's metadata as the API returns it.
type File struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BlobID       string    `json:"blob_id"`
	UserID       string    `json:"user_id"`
	FolderID     *string   `json:"folder_id"`
	Size         int64     `json:"size"`
	Type         string    `json:"type"`
	CreatedAt    time.Time `json:"created_at"`
	IsStarred    bool      `json:"is_starred"`
	ThumbnailURL *string   `json:"thumbnail_url"`
}

// FileWithURL is the single-file response; it carries fresh presigned
// preview and download URLs alongside the metadata.
type FileWithURL struct {
	File
	PreviewURL  string `json:"preview_url,omitempty"`
	DownloadURL string `json:"download_url"`
}

// Folder is a folder's metadata as the API returns it.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parent_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is the authenticated account.
type User struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	ProfileImage *string `json:"profile_image"`
	Quota        int64   `json:"quota"`
	UsedStorage  int64   `json:"used_storage"`
}

// PresignRequest asks the API for a direct-to-storage upload URL.
type PresignRequest struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
}

// PresignResponse carries the presigned URL and the server-side handle
// that must be echoed back on completion.
type PresignResponse struct {
	PresignURL string `json:"presign_url"`
	UploadID   string `json:"upload_id"`
}

// CompleteRequest finalizes an upload after the storage PUT succeeds.
type CompleteRequest struct {
	UploadID string  `json:"upload_id"`
	FileName string  `json:"file_name"`
	FileType string  `json:"file_type"`
	FolderID *string `json:"folder_id"`
}

// CreateFolderRequest creates a folder, optionally nested.
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// RenameRequest renames a file or folder.
type RenameRequest struct {
	Name string `json:"name"`
}

// ShareResponse is returned when a share link is created.
type ShareResponse struct {
	Token string `json:"token"`
}

// ShareStatus reports whether a file currently has an active share link.
type ShareStatus struct {
	IsShared bool   `json:"isShared"`
	ShareURL string `json:"shareUrl,omitempty"`
}

// APIError is the error body the backend returns on failures.
type APIError struct {
	Message string `json:"message"`
}
