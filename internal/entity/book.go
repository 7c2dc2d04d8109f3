package entity

import "image"

type UploadedImage struct {
	Filename string
	Data     []byte
}

type BookCrop struct {
	Source   string
	BoxIndex int
	Image    *image.RGBA
}

type BookInfo struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Valid reports whether both fields were read off the crop.
func (b BookInfo) Valid() bool {
	return b.Title != "" && b.Author != ""
}

type BookOut struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Count  int    `json:"count"`
}
