package manga

// FreePreviewChapters is how many leading chapters of a premium series
// anyone can read without unlocking it.
const FreePreviewChapters = 3

// HasAccess decides whether a reader may see a chapter's pages.
// Uploaders always see their own series. Premium series show the first
// FreePreviewChapters to everyone; beyond that the reader must own the
// unlock. Free series show the preview to guests and everything to
// logged-in readers.
func HasAccess(userID int, loggedIn bool, m *Manga, owned bool, chapterNumber int) bool {
	if loggedIn && m.UploaderID == userID {
		return true
	}
	if m.IsPremium {
		return chapterNumber <= FreePreviewChapters || owned
	}
	return chapterNumber <= FreePreviewChapters || loggedIn
}
