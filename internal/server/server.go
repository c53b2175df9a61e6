// Package server exposes the game facade over HTTP for the local UI. It is
// a thin seam: every route maps one-to-one onto a facade operation, and
// precondition failures surface as 409 rather than errors.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EvannNalewajek/guilde/internal/game/facade"
)

// Loop is the simulation scheduler's control surface.
type Loop interface {
	Start()
	Stop()
	Pause()
	Resume()
}

// Server handles the UI-facing HTTP routes.
type Server struct {
	game   *facade.Game
	loop   Loop
	logger *zap.Logger
}

// New creates a Server.
//
// Precondition: all arguments must be non-nil.
func New(game *facade.Game, loop Loop, logger *zap.Logger) *Server {
	return &Server{game: game, loop: loop, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/state", s.State)

	api.POST("/forest/enter", s.EnterForest)
	api.POST("/forest/leave", s.LeaveForest)
	api.POST("/attack", s.Attack)
	api.POST("/rest", s.Rest)
	api.POST("/guild/upgrade", s.UpgradeGuild)

	api.POST("/quests/:id/accept", s.AcceptQuest)
	api.POST("/quests/:id/abandon", s.AbandonQuest)
	api.POST("/stats/:key", s.AddStat)

	api.POST("/recruits", s.AddRecruit)
	api.GET("/missions", s.Missions)
	api.POST("/recruits/:id/mission", s.StartMission)
	api.POST("/recruits/:id/mission/cancel", s.CancelMission)
	api.POST("/recruits/:id/training", s.StartTraining)
	api.POST("/recruits/:id/training/cancel", s.CancelTraining)
	api.POST("/recruits/:id/rest", s.StartRecruitRest)
	api.POST("/recruits/:id/rest/stop", s.StopRecruitRest)

	api.POST("/save", s.Save)
	api.POST("/wipe", s.Wipe)

	api.POST("/engine/start", s.StartLoop)
	api.POST("/engine/stop", s.StopLoop)
	api.POST("/engine/pause", s.PauseLoop)
	api.POST("/engine/resume", s.ResumeLoop)

	return r
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// rejected reports a precondition failure: the action was valid HTTP but
// not allowed in the current game state.
func rejected(c *gin.Context) {
	c.JSON(http.StatusConflict, gin.H{"ok": false})
}

// State returns the full game snapshot.
// GET /api/state
func (s *Server) State(c *gin.Context) {
	c.JSON(http.StatusOK, s.game.Snapshot())
}

// EnterForest moves the player to the forest.
// POST /api/forest/enter
func (s *Server) EnterForest(c *gin.Context) {
	s.game.EnterForest()
	ok(c)
}

// LeaveForest returns the player to the guild.
// POST /api/forest/leave
func (s *Server) LeaveForest(c *gin.Context) {
	s.game.LeaveForest()
	ok(c)
}

// Attack performs one manual attack.
// POST /api/attack
func (s *Server) Attack(c *gin.Context) {
	if !s.game.ManualAttack() {
		rejected(c)
		return
	}
	ok(c)
}

// Rest fully heals the player at the guild.
// POST /api/rest
func (s *Server) Rest(c *gin.Context) {
	if !s.game.Rest() {
		rejected(c)
		return
	}
	ok(c)
}

// UpgradeGuild buys the next guild level.
// POST /api/guild/upgrade
func (s *Server) UpgradeGuild(c *gin.Context) {
	if !s.game.UpgradeGuild() {
		rejected(c)
		return
	}
	ok(c)
}

// AcceptQuest accepts a quest offer.
// POST /api/quests/:id/accept
func (s *Server) AcceptQuest(c *gin.Context) {
	if !s.game.AcceptQuest(c.Param("id")) {
		rejected(c)
		return
	}
	ok(c)
}

// AbandonQuest drops an accepted quest.
// POST /api/quests/:id/abandon
func (s *Server) AbandonQuest(c *gin.Context) {
	s.game.AbandonQuest(c.Param("id"))
	ok(c)
}

// AddStat spends stat points on the named stat. The optional body field
// "count" requests a bulk spend; it defaults to 1.
// POST /api/stats/:key
func (s *Server) AddStat(c *gin.Context) {
	var req struct {
		Count int `json:"count"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Count < 1 {
		req.Count = 1
	}

	applied := s.game.AddStatBulk(c.Param("key"), req.Count)
	if applied == 0 {
		rejected(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "applied": applied})
}

// AddRecruit hires a new recruit.
// POST /api/recruits
func (s *Server) AddRecruit(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "name is required"})
		return
	}

	id, added := s.game.AddRecruit(req.Name)
	if !added {
		rejected(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": id})
}

// Missions lists the mission templates.
// GET /api/missions
func (s *Server) Missions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"missions": s.game.Missions()})
}

// StartMission sends a recruit on a mission named by the body field
// "template".
// POST /api/recruits/:id/mission
func (s *Server) StartMission(c *gin.Context) {
	var req struct {
		Template string `json:"template"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Template == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "template is required"})
		return
	}

	if !s.game.StartMission(c.Param("id"), req.Template) {
		rejected(c)
		return
	}
	ok(c)
}

// CancelMission aborts a recruit's mission.
// POST /api/recruits/:id/mission/cancel
func (s *Server) CancelMission(c *gin.Context) {
	if !s.game.CancelMission(c.Param("id")) {
		rejected(c)
		return
	}
	ok(c)
}

// StartTraining begins training the stat named by the body field "type".
// POST /api/recruits/:id/training
func (s *Server) StartTraining(c *gin.Context) {
	var req struct {
		Type string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "type is required"})
		return
	}

	if !s.game.StartTraining(c.Param("id"), req.Type) {
		rejected(c)
		return
	}
	ok(c)
}

// CancelTraining aborts a recruit's training session.
// POST /api/recruits/:id/training/cancel
func (s *Server) CancelTraining(c *gin.Context) {
	if !s.game.CancelTraining(c.Param("id")) {
		rejected(c)
		return
	}
	ok(c)
}

// StartRecruitRest puts a recruit to rest.
// POST /api/recruits/:id/rest
func (s *Server) StartRecruitRest(c *gin.Context) {
	if !s.game.StartRecruitRest(c.Param("id")) {
		rejected(c)
		return
	}
	ok(c)
}

// StopRecruitRest wakes a resting recruit early.
// POST /api/recruits/:id/rest/stop
func (s *Server) StopRecruitRest(c *gin.Context) {
	if !s.game.StopRecruitRest(c.Param("id")) {
		rejected(c)
		return
	}
	ok(c)
}

// Save persists the current state.
// POST /api/save
func (s *Server) Save(c *gin.Context) {
	s.game.Save()
	ok(c)
}

// Wipe deletes the save and resets the game.
// POST /api/wipe
func (s *Server) Wipe(c *gin.Context) {
	s.game.Wipe()
	ok(c)
}

// StartLoop starts the simulation scheduler.
// POST /api/engine/start
func (s *Server) StartLoop(c *gin.Context) {
	s.loop.Start()
	ok(c)
}

// StopLoop stops the simulation scheduler.
// POST /api/engine/stop
func (s *Server) StopLoop(c *gin.Context) {
	s.loop.Stop()
	ok(c)
}

// PauseLoop suspends combat time.
// POST /api/engine/pause
func (s *Server) PauseLoop(c *gin.Context) {
	s.loop.Pause()
	ok(c)
}

// ResumeLoop lifts a pause.
// POST /api/engine/resume
func (s *Server) ResumeLoop(c *gin.Context) {
	s.loop.Resume()
	ok(c)
}
