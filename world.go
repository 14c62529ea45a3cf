package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// Rect is an axis-aligned collision rectangle from the map data.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// GoalZone is a scoring region. Team is the defending team: a ball inside a
// red zone scores for blue.
type GoalZone struct {
	Name   string  `json:"name"`
	Team   string  `json:"team"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether a point lies inside the zone.
func (z GoalZone) Contains(x, y float64) bool {
	return x >= z.X && x <= z.X+z.Width && y >= z.Y && y <= z.Y+z.Height
}

// World is the immutable pitch geometry, loaded once at startup and safe for
// concurrent reads.
type World struct {
	Colliders []Rect
	Goals     []GoalZone
}

type collisionFile struct {
	Collisions []Rect `json:"collisions"`
}

type goalFile struct {
	Goals []GoalZone `json:"goals"`
}

// LoadWorld reads the collision and goal data files.
func LoadWorld(collisionPath, goalPath string) (*World, error) {
	w := &World{}

	raw, err := os.ReadFile(collisionPath)
	if err != nil {
		return nil, fmt.Errorf("read collision file: %w", err)
	}
	var cf collisionFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("parse collision file: %w", err)
	}
	w.Colliders = cf.Collisions

	raw, err = os.ReadFile(goalPath)
	if err != nil {
		return nil, fmt.Errorf("read goal file: %w", err)
	}
	var gf goalFile
	if err := json.Unmarshal(raw, &gf); err != nil {
		return nil, fmt.Errorf("parse goal file: %w", err)
	}
	for _, g := range gf.Goals {
		if g.Team != TeamRed && g.Team != TeamBlue {
			return nil, fmt.Errorf("goal %q: unknown team %q", g.Name, g.Team)
		}
		w.Goals = append(w.Goals, g)
	}
	return w, nil
}

// GoalAt returns the zone containing the point, or nil.
func (w *World) GoalAt(x, y float64) *GoalZone {
	for i := range w.Goals {
		if w.Goals[i].Contains(x, y) {
			return &w.Goals[i]
		}
	}
	return nil
}

// Pitch centre, where the ball spawns and returns after goals.
const (
	PitchCenterX = PitchWidth / 2
	PitchCenterY = PitchHeight / 2
)

// Team spawn slots, indexed by join order within the team. Red defends the
// left goal and attacks +X; blue mirrors.
var redSpawns = [6][2]float64{
	{880, 800},
	{660, 500},
	{660, 1100},
	{440, 300},
	{440, 1300},
	{300, 800},
}

var blueSpawns = [6][2]float64{
	{2640, 800},
	{2860, 500},
	{2860, 1100},
	{3080, 300},
	{3080, 1300},
	{3220, 800},
}

// Spectators watch from the top touchline.
var spectatorSpawn = [2]float64{PitchCenterX, 120}

// SpawnFor returns the spawn position for a team slot.
func SpawnFor(team string, slot int) (float64, float64) {
	switch team {
	case TeamRed:
		s := redSpawns[slot%len(redSpawns)]
		return s[0], s[1]
	case TeamBlue:
		s := blueSpawns[slot%len(blueSpawns)]
		return s[0], s[1]
	default:
		return spectatorSpawn[0], spectatorSpawn[1]
	}
}

// AttackDirection is +1 for red (attacks right), -1 for blue.
func AttackDirection(team string) float64 {
	if team == TeamBlue {
		return -1
	}
	return 1
}

// OpponentGoalTarget is the auto-aim point used by power shots.
func OpponentGoalTarget(team string) (float64, float64) {
	if team == TeamBlue {
		return 120, 800
	}
	return 3400, 800
}
