package models

// Blob path scheme. Every asset of an episode uses the canonical id as its
// filename stem inside a fixed folder.

func AudioPath(id string) string {
	return "audio/" + id + ".mp3"
}

func DescriptionPath(id string) string {
	return "descriptions/" + id + ".md"
}

func ThumbnailJPGPath(id string) string {
	return "thumbnails/" + id + "-thumb.jpg"
}

// ThumbnailWebPPath is the fallback probed when the JPG thumbnail is absent.
func ThumbnailWebPPath(id string) string {
	return "thumbnails/" + id + "-thumb.webp"
}

// AudioPrefix is the listing prefix for all audio blobs whose id starts with
// stem, used by the allocator to find the numbering high-water mark.
func AudioPrefix(stem string) string {
	return "audio/" + stem
}
