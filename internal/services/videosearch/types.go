package videosearch

// Typed YouTube Data API v3 response shapes. Only the fields the curation
// engine consumes are declared; everything else is dropped at decode time.

type searchResponse struct {
	Items []searchItem `json:"items"`
	Error *apiError    `json:"error,omitempty"`
}

type searchItem struct {
	ID      searchItemID `json:"id"`
	Snippet snippet      `json:"snippet"`
}

type searchItemID struct {
	VideoID string `json:"videoId"`
}

type snippet struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
}

type commentThreadsResponse struct {
	Items []commentThread `json:"items"`
	Error *apiError       `json:"error,omitempty"`
}

type commentThread struct {
	Snippet commentThreadSnippet `json:"snippet"`
}

type commentThreadSnippet struct {
	TopLevelComment topLevelComment `json:"topLevelComment"`
}

type topLevelComment struct {
	Snippet commentSnippet `json:"snippet"`
}

type commentSnippet struct {
	TextDisplay string `json:"textDisplay"`
	LikeCount   int64  `json:"likeCount"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
