package catalog

import (
	"context"
	"sort"
	"sync"
)

// favouriteGameIDs is the curated staff-picks list shown on the
// favourites page. Order here is display order.
var favouriteGameIDs = []int{
	3328,   // The Witcher 3: Wild Hunt
	13536,  // Portal
	4200,   // Portal 2
	22121,  // Celeste
	9767,   // Hollow Knight
	292844, // Hollow Knight: Silksong
	766,    // Warframe
	32,     // Destiny 2
	58764,  // The Outer Wilds
	650649, // Outer Wilds: Echoes of the Eye
	772603, // Chants of Sennaar
	983210, // Clair Obscur: Expedition 33
	274755, // Hades
	891238, // Hades II
	29236,  // Tunic
	22509,  // Minecraft
}

// Favourites fetches details for the curated list. The fetches are
// independent, so they run concurrently; entries that fail to load are
// dropped rather than failing the whole page. Display order is kept.
func (c *Client) Favourites(ctx context.Context) []Game {
	type indexed struct {
		idx  int
		game *Game
	}

	results := make(chan indexed, len(favouriteGameIDs))
	var wg sync.WaitGroup

	for i, id := range favouriteGameIDs {
		wg.Add(1)
		go func(idx, gameID int) {
			defer wg.Done()
			game, err := c.Game(ctx, gameID)
			if err != nil {
				c.log.Warn("Favourite %d failed to load: %v", gameID, err)
				return
			}
			results <- indexed{idx: idx, game: game}
		}(i, id)
	}

	wg.Wait()
	close(results)

	loaded := make([]indexed, 0, len(favouriteGameIDs))
	for r := range results {
		loaded = append(loaded, r)
	}
	sort.Slice(loaded, func(i, j int) bool { return loaded[i].idx < loaded[j].idx })

	games := make([]Game, 0, len(loaded))
	for _, r := range loaded {
		games = append(games, *r.game)
	}
	return games
}
