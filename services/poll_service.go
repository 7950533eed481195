package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scrabblecast/overlay-system/models"
	"github.com/scrabblecast/overlay-system/reconcile"
	"github.com/scrabblecast/overlay-system/repositories"
	"github.com/scrabblecast/overlay-system/tsh"
)

// максимум турниров, опрашиваемых одновременно одним тиком планировщика
const maxConcurrentPolls = 4

// ChangeNotifier получает итог опроса после коммита транзакции.
// Доставка fire-and-forget: сбой рассылки не влияет на сохранённые данные.
type ChangeNotifier interface {
	NotifyGamesChanged(tournamentID int, divisionIDs []int, changes models.GameChanges)
}

// PollOutcome - итог одного цикла опроса турнира.
type PollOutcome struct {
	// Unchanged - файл побайтно совпал с последним сохранённым,
	// транзакция не открывалась.
	Unchanged   bool               `json:"unchanged"`
	DivisionIDs []int              `json:"division_ids"`
	Changes     models.GameChanges `json:"changes"`
	Skipped     int                `json:"skipped"`
}

type PollService interface {
	// PollTournament выполняет один цикл опроса. Для каждого турнира в
	// каждый момент выполняется не более одного цикла, параллельный
	// вызов возвращается сразу с Unchanged=true.
	PollTournament(ctx context.Context, tournamentID int) (*PollOutcome, error)
	// Run запускает планировщик и блокируется до отмены контекста.
	Run(ctx context.Context, interval time.Duration)
}

type pollService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	dataRepo       repositories.TournamentDataRepository
	divisionRepo   repositories.DivisionRepository
	playerRepo     repositories.PlayerRepository
	gameRepo       repositories.GameRepository
	loader         *tsh.Loader
	notifier       ChangeNotifier
	logger         *slog.Logger

	// писать ли снапшот в tournament_data_versions при каждом изменении
	saveVersions bool

	flights flightTable
}

func NewPollService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	dataRepo repositories.TournamentDataRepository,
	divisionRepo repositories.DivisionRepository,
	playerRepo repositories.PlayerRepository,
	gameRepo repositories.GameRepository,
	loader *tsh.Loader,
	notifier ChangeNotifier,
	logger *slog.Logger,
	saveVersions bool,
) PollService {
	return &pollService{
		db:             db,
		tournamentRepo: tournamentRepo,
		dataRepo:       dataRepo,
		divisionRepo:   divisionRepo,
		playerRepo:     playerRepo,
		gameRepo:       gameRepo,
		loader:         loader,
		notifier:       notifier,
		logger:         logger,
		saveVersions:   saveVersions,
		flights:        flightTable{active: make(map[int]struct{})},
	}
}

// flightTable не допускает двух одновременных циклов по одному турниру.
// Пропущенный цикл не страшен: следующий тик заберёт те же данные.
type flightTable struct {
	mu     sync.Mutex
	active map[int]struct{}
}

func (f *flightTable) begin(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.active[id]; busy {
		return false
	}
	f.active[id] = struct{}{}
	return true
}

func (f *flightTable) end(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, id)
}

func (s *pollService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("poll scheduler started", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("poll scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *pollService) tick(ctx context.Context) {
	if ended, err := s.tournamentRepo.EndExpiredPollable(ctx); err != nil {
		s.logger.Error("failed to end expired polling windows", slog.Any("error", err))
	} else if ended > 0 {
		s.logger.Info("polling windows expired", slog.Int64("count", ended))
	}

	tournaments, err := s.tournamentRepo.ListActivePollable(ctx)
	if err != nil {
		s.logger.Error("failed to list pollable tournaments", slog.Any("error", err))
		return
	}
	if len(tournaments) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPolls)
	for _, t := range tournaments {
		t := t
		g.Go(func() error {
			outcome, err := s.PollTournament(gctx, t.ID)
			if err != nil {
				// Сбой одного турнира не останавливает тик.
				s.logger.Error("poll cycle failed",
					slog.Int("tournament_id", t.ID),
					slog.Any("error", err))
				return nil
			}
			if !outcome.Unchanged {
				s.logger.Info("poll cycle applied changes",
					slog.Int("tournament_id", t.ID),
					slog.Int("added", len(outcome.Changes.Added)),
					slog.Int("updated", len(outcome.Changes.Updated)),
					slog.Int("skipped", outcome.Skipped))
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *pollService) PollTournament(ctx context.Context, tournamentID int) (*PollOutcome, error) {
	if !s.flights.begin(tournamentID) {
		return &PollOutcome{Unchanged: true}, nil
	}
	defer s.flights.end(tournamentID)

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	stored, err := s.dataRepo.GetByTournamentID(ctx, tournamentID)
	if err != nil && !errors.Is(err, repositories.ErrTournamentDataNotFound) {
		return nil, fmt.Errorf("failed to load stored data for tournament %d: %w", tournamentID, err)
	}
	if stored == nil {
		return nil, fmt.Errorf("tournament %d has no data url on record", tournamentID)
	}

	file, raw, err := s.loader.Load(ctx, stored.DataURL)
	if err != nil {
		if errors.Is(err, tsh.ErrFetch) {
			return nil, fmt.Errorf("%w: %v", ErrDataFetchFailed, err)
		}
		if errors.Is(err, tsh.ErrParse) {
			return nil, fmt.Errorf("%w: %v", ErrDataParseFailed, err)
		}
		return nil, err
	}

	// Оба блоба сериализованы одним и тем же каноничным маршалером,
	// поэтому идентичный файл даёт идентичные байты.
	if len(stored.Data) > 0 && bytes.Equal(stored.Data, raw) {
		return &PollOutcome{Unchanged: true}, nil
	}

	outcome, err := s.applyFile(ctx, tournament, stored.DataURL, file, raw)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil && (len(outcome.Changes.Added) > 0 || len(outcome.Changes.Updated) > 0) {
		s.notifier.NotifyGamesChanged(tournament.ID, outcome.DivisionIDs, outcome.Changes)
	}
	return outcome, nil
}

// applyFile записывает весь результат опроса одной транзакцией: дивизионы,
// игроки, партии и зеркало блоба становятся видимы атомарно.
func (s *pollService) applyFile(ctx context.Context, tournament *models.Tournament, dataURL string, file *tsh.File, raw []byte) (*PollOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin poll transaction: %w", err)
	}
	defer tx.Rollback()

	outcome := &PollOutcome{}

	for position, fileDiv := range file.Divisions {
		division := &models.Division{
			TournamentID: tournament.ID,
			Name:         fileDiv.Name,
			Position:     position,
		}
		if err := s.divisionRepo.Upsert(ctx, tx, division); err != nil {
			return nil, fmt.Errorf("failed to upsert division %q: %w", fileDiv.Name, err)
		}

		playerIDBySeed, err := s.syncPlayers(ctx, tx, tournament.ID, division.ID, &file.Divisions[position])
		if err != nil {
			return nil, err
		}

		persisted, err := s.gameRepo.ListByDivision(ctx, division.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list games for division %d: %w", division.ID, err)
		}

		result := reconcile.Reconcile(&file.Divisions[position], persisted, playerIDBySeed)
		outcome.Skipped += result.Skipped

		inserted := make([]*models.Game, 0, len(result.ToInsert))
		for _, data := range result.ToInsert {
			inserted = append(inserted, gameFromData(division.ID, data))
		}
		if err := s.gameRepo.BatchInsert(ctx, tx, inserted); err != nil {
			if errors.Is(err, repositories.ErrGameConflict) {
				return nil, fmt.Errorf("%w: division %d", ErrPersistenceConflict, division.ID)
			}
			return nil, err
		}
		for _, g := range inserted {
			outcome.Changes.Added = append(outcome.Changes.Added, *g)
		}

		for _, upd := range result.ToUpdate {
			g := gameFromData(division.ID, upd.Data)
			g.ID = upd.GameID
			if err := s.gameRepo.UpdateScores(ctx, tx, g); err != nil {
				return nil, err
			}
			outcome.Changes.Updated = append(outcome.Changes.Updated, *g)
		}

		outcome.DivisionIDs = append(outcome.DivisionIDs, division.ID)
	}

	if err := s.dataRepo.Upsert(ctx, tx, tournament.ID, dataURL, raw); err != nil {
		return nil, err
	}
	if s.saveVersions {
		if err := s.dataRepo.InsertVersion(ctx, tx, tournament.ID, raw); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit poll transaction: %w", err)
	}
	return outcome, nil
}

// syncPlayers заводит новых игроков дивизиона и обновляет приезжающие из
// файла поля у существующих. Возвращает отображение файлового seed в id
// строки players.
func (s *pollService) syncPlayers(ctx context.Context, tx repositories.SQLExecutor, tournamentID, divisionID int, div *tsh.Division) (map[int]int, error) {
	existing, err := s.playerRepo.ListByDivision(ctx, divisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for division %d: %w", divisionID, err)
	}
	bySeed := make(map[int]*models.Player, len(existing))
	for _, p := range existing {
		bySeed[p.Seed] = p
	}

	playerIDBySeed := make(map[int]int, len(div.Players))
	for _, fp := range div.Players {
		if fp == nil {
			continue
		}
		etcJSON, err := fp.EtcJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to encode etc data for seed %d: %w", fp.ID, err)
		}

		if p, ok := bySeed[fp.ID]; ok {
			p.Name = fp.CleanName()
			p.InitialRating = fp.Rating
			p.EtcData = etcJSON
			if err := s.playerRepo.UpdateFromFile(ctx, tx, p); err != nil {
				return nil, err
			}
			playerIDBySeed[fp.ID] = p.ID
			continue
		}

		p := &models.Player{
			TournamentID:  tournamentID,
			DivisionID:    divisionID,
			Seed:          fp.ID,
			Name:          fp.CleanName(),
			InitialRating: fp.Rating,
			EtcData:       etcJSON,
		}
		if fp.Photo != "" {
			photo := fp.Photo
			p.Photo = &photo
		}
		if err := s.playerRepo.Create(ctx, tx, p); err != nil {
			return nil, err
		}
		playerIDBySeed[fp.ID] = p.ID
	}
	return playerIDBySeed, nil
}

func gameFromData(divisionID int, data reconcile.GameData) *models.Game {
	p1 := data.Player1Score
	p2 := data.Player2Score
	return &models.Game{
		DivisionID:   divisionID,
		RoundNumber:  data.RoundNumber,
		Player1ID:    data.Player1ID,
		Player2ID:    data.Player2ID,
		Player1Score: &p1,
		Player2Score: &p2,
		IsBye:        data.IsBye,
		PairingID:    data.PairingID,
	}
}
