package allocation

import (
	"errors"
	"fmt"

	"github.com/Ashish-Rautela/Disaster-Managment/pkg/network"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/routing"
)

// StrictDamageLimit is the damage level a single-source donor must stay below.
const StrictDamageLimit = 3

// ErrNoSupportCity is returned when no single city can cover a need alone.
var ErrNoSupportCity = errors.New("allocation: no support city")

// NearestSupport finds the closest city that could cover need on its own
// while being nearly undamaged. It does not change the network.
func NearestSupport(net *network.Network, city, need int) (Donation, error) {
	tree, err := routing.ShortestPaths(net, city)
	if err != nil {
		return Donation{}, err
	}

	for _, id := range Rank(tree.Dist) {
		if id == city || !tree.Reachable(id) {
			continue
		}
		c, _ := net.City(id)
		if c.Resources >= need && c.Damage < StrictDamageLimit {
			return Donation{
				CityID:     id,
				City:       c.Name,
				Sent:       need,
				DistanceKm: tree.Dist[id],
			}, nil
		}
	}
	return Donation{}, fmt.Errorf("%w: %s needs %d", ErrNoSupportCity, net.Name(city), need)
}
