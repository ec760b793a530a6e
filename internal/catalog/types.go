package catalog

// Wire types for the games catalog API. Only the fields the gallery
// actually renders are decoded; everything else passes through untouched.

// Genre is a game genre (also used as a filter value).
type Genre struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"games_count,omitempty"`
}

// Platform is a parent platform family (PC, PlayStation, ...).
type Platform struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ESRBRating is the catalog's age rating descriptor.
type ESRBRating struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Game is a catalog entry. List responses carry the summary fields;
// detail responses additionally fill Description and Website.
type Game struct {
	ID              int         `json:"id"`
	Slug            string      `json:"slug"`
	Name            string      `json:"name"`
	Released        string      `json:"released"`
	BackgroundImage string      `json:"background_image"`
	Rating          float64     `json:"rating"`
	Metacritic      int         `json:"metacritic"`
	Genres          []Genre     `json:"genres"`
	ESRBRating      *ESRBRating `json:"esrb_rating"`
	ParentPlatforms []struct {
		Platform Platform `json:"platform"`
	} `json:"parent_platforms"`

	// Detail-only fields.
	Description string `json:"description_raw,omitempty"`
	Website     string `json:"website,omitempty"`
	StoreNames  []struct {
		Store struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"store"`
	} `json:"stores,omitempty"`
}

// GameStore links a game to a store page URL.
type GameStore struct {
	ID      int    `json:"id"`
	GameID  int    `json:"game_id"`
	StoreID int    `json:"store_id"`
	URL     string `json:"url"`
}

// Page is the catalog's envelope for paginated lists.
type Page[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []T    `json:"results"`
}

// GamesQuery carries the browse parameters the gallery exposes.
// Zero values mean "not filtered".
type GamesQuery struct {
	Page      int    // 1-based page number
	PageSize  int    // games per page
	Search    string // free text search
	Genres    string // genre slug or id
	Platforms string // parent platform id
	Ordering  string // e.g. "-added", "-rating", "name"
}
