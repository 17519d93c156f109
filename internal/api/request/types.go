package request

// JoinRequest is the request body for bringing a player online
type JoinRequest struct {
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}

// SearchRequest is the request body for setting a player's search term.
// An empty term clears it.
type SearchRequest struct {
	Search string `json:"search"`
}

// MintRequest is the request body for minting and binding a token to the
// caller. Uses defaults to the configured max; -1 mints an infinite token.
type MintRequest struct {
	Kind string `json:"kind"`
	Uses *int32 `json:"uses,omitempty"`
}

// PlaceRequest is the request body for placing a held token as a block in
// the caller's region
type PlaceRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}
