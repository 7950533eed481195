package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/scrabblecast/overlay-system/models"
	"github.com/scrabblecast/overlay-system/reconcile"
	"github.com/scrabblecast/overlay-system/repositories"
	"github.com/scrabblecast/overlay-system/standings"
	"github.com/scrabblecast/overlay-system/tsh"
)

// Варианты сортировки турнирной таблицы.
const (
	SortByRecord       = "record"
	SortByHighScore    = "high_score"
	SortByAverageScore = "average_score"
	SortByRatingGain   = "rating_gain"
)

// OverlayService - читающая сторона для браузерных оверлеев. Таблицы
// считаются из последнего сохранённого блоба файла, статистика - из
// строк games: им нужны id игроков и порядок хода.
type OverlayService interface {
	Standings(ctx context.Context, divisionID int, sortBy string) ([]standings.PlayerStanding, error)
	DivisionStats(ctx context.Context, divisionID int) (*standings.DivisionStats, error)
	TournamentStats(ctx context.Context, tournamentID int) (*standings.DivisionStats, error)
	Games(ctx context.Context, divisionID int) ([]models.Game, error)

	ListVersions(ctx context.Context, tournamentID int) ([]*models.TournamentDataVersion, error)
	DiffVersions(ctx context.Context, tournamentID, fromID, toID int) (*VersionDiff, error)
}

// VersionDiff - какие партии появились или изменились между двумя
// сохранёнными снапшотами файла.
type VersionDiff struct {
	FromVersionID int                  `json:"from_version_id"`
	ToVersionID   int                  `json:"to_version_id"`
	Added         []reconcile.GameData `json:"added"`
	Changed       []reconcile.GameData `json:"changed"`
}

type overlayService struct {
	tournamentRepo repositories.TournamentRepository
	dataRepo       repositories.TournamentDataRepository
	divisionRepo   repositories.DivisionRepository
	playerRepo     repositories.PlayerRepository
	gameRepo       repositories.GameRepository
}

func NewOverlayService(
	tournamentRepo repositories.TournamentRepository,
	dataRepo repositories.TournamentDataRepository,
	divisionRepo repositories.DivisionRepository,
	playerRepo repositories.PlayerRepository,
	gameRepo repositories.GameRepository,
) OverlayService {
	return &overlayService{
		tournamentRepo: tournamentRepo,
		dataRepo:       dataRepo,
		divisionRepo:   divisionRepo,
		playerRepo:     playerRepo,
		gameRepo:       gameRepo,
	}
}

func (s *overlayService) Standings(ctx context.Context, divisionID int, sortBy string) ([]standings.PlayerStanding, error) {
	fileDiv, err := s.fileDivision(ctx, divisionID)
	if err != nil {
		return nil, err
	}

	table := standings.Calculate(fileDiv)
	switch sortBy {
	case SortByRecord, "":
		return standings.RankByRecord(table), nil
	case SortByHighScore:
		return standings.RankByHighScore(table), nil
	case SortByAverageScore:
		return standings.RankByAverageScore(table), nil
	case SortByRatingGain:
		return standings.RankByRatingGain(table), nil
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", ErrValidationFailed, sortBy)
	}
}

func (s *overlayService) DivisionStats(ctx context.Context, divisionID int) (*standings.DivisionStats, error) {
	games, err := s.gameRepo.ListByDivision(ctx, divisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for division %d: %w", divisionID, err)
	}
	players, err := s.playerRepo.ListByDivision(ctx, divisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for division %d: %w", divisionID, err)
	}

	byID := make(map[int]models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = *p
	}
	stats := standings.StatsFromGames(games, byID)
	return &stats, nil
}

// TournamentStats - те же показатели, но по всем дивизионам турнира
// сразу (экран межраундовой заставки).
func (s *overlayService) TournamentStats(ctx context.Context, tournamentID int) (*standings.DivisionStats, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	games, err := s.gameRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for tournament %d: %w", tournamentID, err)
	}

	divisions, err := s.divisionRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list divisions for tournament %d: %w", tournamentID, err)
	}
	byID := make(map[int]models.Player)
	for _, d := range divisions {
		players, err := s.playerRepo.ListByDivision(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list players for division %d: %w", d.ID, err)
		}
		for _, p := range players {
			byID[p.ID] = *p
		}
	}

	stats := standings.StatsFromGames(games, byID)
	return &stats, nil
}

func (s *overlayService) Games(ctx context.Context, divisionID int) ([]models.Game, error) {
	if _, err := s.divisionRepo.GetByID(ctx, divisionID); err != nil {
		if errors.Is(err, repositories.ErrDivisionNotFound) {
			return nil, ErrDivisionNotFound
		}
		return nil, err
	}
	return s.gameRepo.ListByDivision(ctx, divisionID)
}

func (s *overlayService) ListVersions(ctx context.Context, tournamentID int) ([]*models.TournamentDataVersion, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.dataRepo.ListVersions(ctx, tournamentID)
}

// DiffVersions сравнивает два снапшота тем же извлечением партий, что и
// опрос, но в координатах файла (seed вместо id строки): снапшоты
// самодостаточны и не зависят от текущего состояния базы.
func (s *overlayService) DiffVersions(ctx context.Context, tournamentID, fromID, toID int) (*VersionDiff, error) {
	from, err := s.version(ctx, tournamentID, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.version(ctx, tournamentID, toID)
	if err != nil {
		return nil, err
	}

	fromFile, err := decodeStoredFile(from.Data)
	if err != nil {
		return nil, err
	}
	toFile, err := decodeStoredFile(to.Data)
	if err != nil {
		return nil, err
	}

	diff := &VersionDiff{FromVersionID: fromID, ToVersionID: toID}
	for pos := range toFile.Divisions {
		toGames := extractBySeed(&toFile.Divisions[pos])
		var fromGames map[string]reconcile.GameData
		if pos < len(fromFile.Divisions) {
			fromGames = indexBySeed(&fromFile.Divisions[pos])
		}
		for _, g := range toGames {
			key := reconcile.Key(g.RoundNumber, g.Player1Seed, g.Player2Seed, g.IsBye)
			old, ok := fromGames[key]
			switch {
			case !ok:
				diff.Added = append(diff.Added, g)
			case old.Player1Score != g.Player1Score || old.Player2Score != g.Player2Score:
				diff.Changed = append(diff.Changed, g)
			}
		}
	}
	return diff, nil
}

func (s *overlayService) version(ctx context.Context, tournamentID, versionID int) (*models.TournamentDataVersion, error) {
	v, err := s.dataRepo.GetVersionByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentVersionNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}
	if v.TournamentID != tournamentID {
		return nil, ErrVersionNotFound
	}
	return v, nil
}

// fileDivision достаёт дивизион из последнего сохранённого блоба по его
// позиции в файле.
func (s *overlayService) fileDivision(ctx context.Context, divisionID int) (*tsh.Division, error) {
	division, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		if errors.Is(err, repositories.ErrDivisionNotFound) {
			return nil, ErrDivisionNotFound
		}
		return nil, err
	}

	stored, err := s.dataRepo.GetByTournamentID(ctx, division.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentDataNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	file, err := decodeStoredFile(stored.Data)
	if err != nil {
		return nil, err
	}
	if division.Position >= len(file.Divisions) {
		return nil, ErrDivisionNotFound
	}
	return &file.Divisions[division.Position], nil
}

// decodeStoredFile восстанавливает типизированный файл из канонического
// JSON-блоба. Блоб уже очищен от не-JSON значений при разборе исходника.
func decodeStoredFile(data json.RawMessage) (*tsh.File, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: stored blob is not valid json: %v", ErrDataParseFailed, err)
	}
	file, err := tsh.DecodeFile(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataParseFailed, err)
	}
	return file, nil
}

// extractBySeed / indexBySeed переиспользуют конвейер извлечения с
// тождественным отображением seed в seed.
func extractBySeed(div *tsh.Division) []reconcile.GameData {
	games, _ := reconcile.ExtractGames(div, identitySeeds(div))
	return games
}

func indexBySeed(div *tsh.Division) map[string]reconcile.GameData {
	games := extractBySeed(div)
	out := make(map[string]reconcile.GameData, len(games))
	for _, g := range games {
		out[reconcile.Key(g.RoundNumber, g.Player1Seed, g.Player2Seed, g.IsBye)] = g
	}
	return out
}

func identitySeeds(div *tsh.Division) map[int]int {
	m := make(map[int]int, len(div.Players))
	for _, p := range div.Players {
		if p != nil {
			m[p.ID] = p.ID
		}
	}
	return m
}
