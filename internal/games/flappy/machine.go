package flappy

// Proof is evidence that a caller may act on a record. Verification itself
// lives outside this package; the core only asks the question.
type Proof interface {
	// Authorizes reports whether the caller may act for authority.
	Authorizes(authority string) bool
}

// Signer is a Proof held by a caller whose identity is already verified.
// It authorizes only the record whose authority it names.
type Signer string

// Authorizes implements Proof.
func (s Signer) Authorizes(authority string) bool {
	return string(s) == authority
}

// authorize is the guard every entry point runs before touching the record.
func (g *GameState) authorize(p Proof) error {
	if p == nil || !p.Authorizes(g.Authority) {
		return ErrInvalidAuth
	}
	return nil
}

// Start begins a new episode. It fails while an episode is already playing.
// The generator is reseeded from now; the high score is kept.
func (g *GameState) Start(p Proof, now int64) error {
	if err := g.authorize(p); err != nil {
		return err
	}
	if g.Status == StatusPlaying {
		return ErrGameAlreadyStarted
	}

	g.clearEpisode()
	g.Status = StatusPlaying
	g.LastUpdate = now
	g.Seed = uint64(now) //#nosec G115 -- clock value reinterpreted as seed bits
	return nil
}

// Flap sets the bird's velocity to the jump impulse and runs one tick.
// A fresh record is started implicitly; a finished one is rejected.
func (g *GameState) Flap(p Proof, now int64) error {
	if err := g.authorize(p); err != nil {
		return err
	}
	if g.Status == StatusGameOver {
		return ErrGameNotPlaying
	}

	if g.Status == StatusNotStarted {
		g.Status = StatusPlaying
		g.LastUpdate = now
	}

	g.BirdVelocity = JumpVelocity
	g.step(now)
	return nil
}

// Tick runs one tick of the current episode.
func (g *GameState) Tick(p Proof, now int64) error {
	if err := g.authorize(p); err != nil {
		return err
	}
	if g.Status != StatusPlaying {
		return ErrGameNotPlaying
	}

	g.step(now)
	return nil
}

// End forces the episode over and updates the high score. Always valid.
func (g *GameState) End(p Proof, _ int64) error {
	if err := g.authorize(p); err != nil {
		return err
	}

	g.endEpisode()
	return nil
}

// Reset returns to NotStarted with the episode cleared. The seed, the last
// update stamp and the high score are left as they are.
func (g *GameState) Reset(p Proof, _ int64) error {
	if err := g.authorize(p); err != nil {
		return err
	}

	g.clearEpisode()
	g.Status = StatusNotStarted
	return nil
}
