package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ligna159/iPadManualImageMasking/brush"
	"github.com/ligna159/iPadManualImageMasking/config"
	"github.com/ligna159/iPadManualImageMasking/decode"
	"github.com/ligna159/iPadManualImageMasking/session"
	"github.com/ligna159/iPadManualImageMasking/utils"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBusy            = errors.New("too many concurrent loads")
)

type sessionEntry struct {
	mu       sync.Mutex
	sess     *session.Session
	lastUsed time.Time
}

// SessionManager 管理所有标注会话，同一会话的操作串行执行
type SessionManager struct {
	mu           sync.Mutex
	sessions     map[string]*sessionEntry
	maxSessions  int
	idleTimeout  time.Duration
	defaults     brush.State
	decoder      decode.Decoder
	decodeLimit  int
	loadSlots    chan struct{}
	queueTimeout time.Duration
	now          func() time.Time
}

func NewSessionManager(cfg *config.Config, decoder decode.Decoder) (*SessionManager, error) {
	mode, err := brush.ParseMode(cfg.Brush.Mode)
	if err != nil {
		return nil, err
	}
	defaults := brush.State{Radius: cfg.Brush.Radius, Mode: mode, Opacity: cfg.Brush.Opacity}
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid brush defaults: %w", err)
	}

	return &SessionManager{
		sessions:     make(map[string]*sessionEntry),
		maxSessions:  cfg.Session.MaxSessions,
		idleTimeout:  cfg.Session.IdleTimeout,
		defaults:     defaults,
		decoder:      decoder,
		decodeLimit:  cfg.Decode.MaxConcurrent,
		loadSlots:    make(chan struct{}, max(1, cfg.Decode.MaxConcurrent)),
		queueTimeout: 30 * time.Second,
		now:          time.Now,
	}, nil
}

// decodeBatch 限制同时进行的批量解码数量
func (m *SessionManager) decodeBatch(ctx context.Context, sources []decode.Source) (*decode.Batch, error) {
	waitCtx, cancel := context.WithTimeout(ctx, m.queueTimeout)
	defer cancel()

	select {
	case m.loadSlots <- struct{}{}:
		defer func() { <-m.loadSlots }()
	case <-waitCtx.Done():
		return nil, ErrBusy
	}

	start := time.Now()
	batch, err := decode.LoadBatch(ctx, sources, m.decoder, m.decodeLimit)
	if batch != nil {
		utils.Logger.Info("batch decoded",
			zap.String("loaded", batch.Ratio()),
			zap.Duration("duration", time.Since(start)))
	}
	return batch, err
}

// Create 解码文件并创建新会话；全部失败时不创建会话
func (m *SessionManager) Create(ctx context.Context, sources []decode.Source) (string, *decode.Batch, error) {
	batch, err := m.decodeBatch(ctx, sources)
	if err != nil {
		return "", batch, err
	}

	sess, err := session.New(m.defaults)
	if err != nil {
		return "", batch, err
	}
	if err := sess.Load(batch.Images); err != nil {
		return "", batch, err
	}

	var seed []byte
	if len(sources) > 0 {
		seed = sources[0].Data
	}
	id := utils.SessionID(seed)

	m.mu.Lock()
	m.evictLocked()
	m.sessions[id] = &sessionEntry{sess: sess, lastUsed: m.now()}
	m.mu.Unlock()

	utils.Logger.Info("session created",
		zap.String("session_id", id),
		zap.Int("images", sess.Len()))
	return id, batch, nil
}

// Reload 用新的文件集替换会话的全部图像与掩码；全部失败时会话被清空
func (m *SessionManager) Reload(ctx context.Context, id string, sources []decode.Source) (*decode.Batch, error) {
	if _, err := m.entry(id); err != nil {
		return nil, err
	}
	batch, err := m.decodeBatch(ctx, sources)
	if err != nil && !errors.Is(err, decode.ErrEmptyBatch) {
		return batch, err
	}
	werr := m.With(id, func(s *session.Session) error {
		if batch == nil {
			return s.Load(nil)
		}
		return s.Load(batch.Images)
	})
	if err != nil {
		return batch, err
	}
	return batch, werr
}

func (m *SessionManager) entry(id string) (*sessionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastUsed = m.now()
	return e, nil
}

// With 在会话锁内执行 fn
func (m *SessionManager) With(id string, fn func(s *session.Session) error) error {
	e, err := m.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.sess)
}

func (m *SessionManager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// evictLocked 清理空闲超时的会话，仍超出上限时淘汰最久未使用的会话
func (m *SessionManager) evictLocked() {
	now := m.now()
	if m.idleTimeout > 0 {
		for id, e := range m.sessions {
			if now.Sub(e.lastUsed) > m.idleTimeout {
				delete(m.sessions, id)
				utils.Logger.Info("session expired", zap.String("session_id", id))
			}
		}
	}
	for m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		var oldestID string
		var oldest time.Time
		for id, e := range m.sessions {
			if oldestID == "" || e.lastUsed.Before(oldest) {
				oldestID, oldest = id, e.lastUsed
			}
		}
		delete(m.sessions, oldestID)
		utils.Logger.Info("session evicted", zap.String("session_id", oldestID))
	}
}
