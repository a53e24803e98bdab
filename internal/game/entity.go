package game

import (
	"sync"

	"github.com/naveenspark/pong/pkg/domain"
)

// EntityKind identifies what an entity renders as.
type EntityKind int

const (
	KindField EntityKind = iota
	KindPaddle
	KindBall
)

func (k EntityKind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindPaddle:
		return "paddle"
	case KindBall:
		return "ball"
	}
	return "unknown"
}

// Local rendering space. The origin is the field centre and y grows upward.
const (
	FieldWidth   = 20.0
	FieldHeight  = 10.0
	PaddleHeight = 2.0
	BallRadius   = 0.25
)

// Paddle start positions in local space.
var (
	LeftPaddleStart  = domain.Vec{X: -9, Y: 0}
	RightPaddleStart = domain.Vec{X: 9, Y: 0}
)

// Paddle colours, 0xRRGGBB.
const (
	LeftPaddleColor  = 0x00ff00
	RightPaddleColor = 0xff0000
)

// Entity is anything a scene can hold.
type Entity interface {
	Kind() EntityKind
	Position() domain.Vec
}

// body holds a mutable position shared by the movable entities.
type body struct {
	mu      sync.RWMutex
	pos     domain.Vec
	updates int
}

func (b *body) Position() domain.Vec {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pos
}

// UpdatePosition moves the entity to p.
func (b *body) UpdatePosition(p domain.Vec) {
	b.mu.Lock()
	b.pos = p
	b.updates++
	b.mu.Unlock()
}

// Updates returns how many times the position was set by the server.
func (b *body) Updates() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updates
}

// PlayingField is the static court the paddles and ball move on.
type PlayingField struct {
	scene  Scene
	Width  float64
	Height float64
}

// NewPlayingField creates a field of the default size for scene.
func NewPlayingField(scene Scene) *PlayingField {
	return &PlayingField{scene: scene, Width: FieldWidth, Height: FieldHeight}
}

func (f *PlayingField) Kind() EntityKind     { return KindField }
func (f *PlayingField) Position() domain.Vec { return domain.Vec{} }

// AddToScene attaches the field to its scene.
func (f *PlayingField) AddToScene() { f.scene.Add(f) }

// Paddle is a player's bat.
type Paddle struct {
	body
	scene  Scene
	Color  int
	Height float64
}

// NewPaddle creates a paddle at start with the given colour.
func NewPaddle(scene Scene, start domain.Vec, color int) *Paddle {
	p := &Paddle{scene: scene, Color: color, Height: PaddleHeight}
	p.pos = start
	return p
}

func (p *Paddle) Kind() EntityKind { return KindPaddle }

// AddToScene attaches the paddle to its scene.
func (p *Paddle) AddToScene() { p.scene.Add(p) }

// Ball is the game ball; it starts at the field centre.
type Ball struct {
	body
	scene  Scene
	Radius float64
}

// NewBall creates a ball for scene.
func NewBall(scene Scene) *Ball {
	return &Ball{scene: scene, Radius: BallRadius}
}

func (b *Ball) Kind() EntityKind { return KindBall }

// AddToScene attaches the ball to its scene.
func (b *Ball) AddToScene() { b.scene.Add(b) }
