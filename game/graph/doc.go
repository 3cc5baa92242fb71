// Package graph provides the movement map used by citygrid games.
//
// A Map is a directed graph of nodes and neighbour relationships. Nodes carry
// the parking-spot and rail flags; relationships carry an optional
// restriction, the rail flag, a modifiability flag and the district
// (neighbourhood) they belong to.
//
// The topology is static for the lifetime of a game except for restriction
// changes requested through edge modification inputs. Every game owns its
// own copy of the map, obtained through Clone.
package graph
