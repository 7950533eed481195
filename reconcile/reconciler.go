// Package reconcile сравнивает свежераспарсенный файл дивизиона с уже
// сохранёнными партиями и вычисляет минимальный набор вставок и
// обновлений. Одна и та же физическая партия видна из массивов обоих
// игроков и появляется в каждом опросе заново - ключ партии обязан
// склеивать все эти наблюдения в одну логическую сущность.
package reconcile

import (
	"fmt"

	"github.com/scrabblecast/overlay-system/models"
	"github.com/scrabblecast/overlay-system/tsh"
)

// GameData - партия в терминах файла, готовая к записи.
type GameData struct {
	RoundNumber  int
	Player1Seed  int
	Player2Seed  int
	Player1ID    int // id строки players
	Player2ID    int
	Player1Score int
	Player2Score int
	IsBye        bool
	PairingID    int
}

// Update привязывает новые данные к существующей строке games.
type Update struct {
	GameID int
	Data   GameData
}

// Result - итог сверки одного дивизиона за один опрос.
type Result struct {
	ToInsert  []GameData
	ToUpdate  []Update
	Unchanged int
	// Skipped - пары, сославшиеся на отсутствующего (снятого) игрока.
	// Такие партии молча пропускаются, остальной дивизион обрабатывается.
	Skipped int
}

// Key строит ключ партии. Для обычной партии ключ симметричен
// (меньший seed первым), поэтому пара записывается ровно один раз
// независимо от того, чей массив обходится первым. Bye никогда не
// делится между игроками, его ключ уникален на игрока и раунд.
func Key(round, seedA, seedB int, isBye bool) string {
	if isBye {
		return fmt.Sprintf("%d-%d-bye", round, seedA)
	}
	if seedB < seedA {
		seedA, seedB = seedB, seedA
	}
	return fmt.Sprintf("%d-%d-%d", round, seedA, seedB)
}

// Reconcile классифицирует партии файла против сохранённых строк.
// playerIDBySeed отображает файловый seed в id строки players этого
// дивизиона. Сохранённые партии, которых больше нет в файле, не
// трогаются: файлы считаются монотонно растущими, усечение - сбой
// выгрузки, а не отзыв результатов.
func Reconcile(div *tsh.Division, persisted []models.Game, playerIDBySeed map[int]int) Result {
	extracted, skipped := ExtractGames(div, playerIDBySeed)
	existing := indexPersisted(persisted, playerIDBySeed)

	res := Result{Skipped: skipped}
	for _, game := range extracted {
		key := Key(game.RoundNumber, game.Player1Seed, game.Player2Seed, game.IsBye)
		stored, ok := existing[key]
		switch {
		case !ok:
			res.ToInsert = append(res.ToInsert, game)
		case scoresChanged(game, stored):
			res.ToUpdate = append(res.ToUpdate, Update{GameID: stored.ID, Data: game})
		default:
			res.Unchanged++
		}
	}
	return res
}

// ExtractGames обходит игроков в порядке массива (по возрастанию seed)
// и раунды по порядку, поэтому порядок результата детерминирован:
// повторный разбор того же файла даёт побайтно идентичный список.
// Первая встреча пары выигрывает - с точки зрения соперника та же
// партия уже не перезаписывается.
func ExtractGames(div *tsh.Division, playerIDBySeed map[int]int) ([]GameData, int) {
	seen := make(map[string]struct{})
	var games []GameData
	skipped := 0

	for _, player := range div.Players {
		if player == nil {
			continue
		}
		playerID, ok := playerIDBySeed[player.ID]
		if !ok {
			skipped += len(player.Pairings)
			continue
		}

		for i, opponentSeed := range player.Pairings {
			round := i + 1
			score, scored := player.Score(i)

			if opponentSeed == 0 {
				if !scored {
					// Раунд объявлен, но ещё не сыгран.
					continue
				}
				key := Key(round, player.ID, player.ID, true)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				games = append(games, GameData{
					RoundNumber:  round,
					Player1Seed:  player.ID,
					Player2Seed:  player.ID,
					Player1ID:    playerID,
					Player2ID:    playerID,
					Player1Score: score,
					Player2Score: 0,
					IsBye:        true,
					PairingID:    player.ID,
				})
				continue
			}

			key := Key(round, player.ID, opponentSeed, false)
			if _, dup := seen[key]; dup {
				continue
			}

			opponent := div.Player(opponentSeed)
			if opponent == nil {
				// Пара ссылается на снятого игрока - неразрешима.
				seen[key] = struct{}{}
				skipped++
				continue
			}
			opponentID, ok := playerIDBySeed[opponentSeed]
			if !ok {
				seen[key] = struct{}{}
				skipped++
				continue
			}

			opponentScore, opponentScored := opponent.Score(i)
			if !scored || !opponentScored {
				// Счёта ещё нет - партия не записывается до появления
				// результата в файле.
				continue
			}
			seen[key] = struct{}{}

			games = append(games, orderParticipants(round, i, player, opponent, playerID, opponentID, score, opponentScore))
		}
	}
	return games, skipped
}

// orderParticipants решает, кто в строке будет player1. Первым идёт
// тот, у кого p12 в этом раунде равен 1; если ни у кого (старые или
// неполные файлы) - игрок с меньшим seed. Выбор влияет только на
// отображение, но обязан быть стабильным между опросами, иначе каждая
// сверка порождала бы ложные обновления.
func orderParticipants(round, idx int, player, opponent *tsh.Player, playerID, opponentID, score, opponentScore int) GameData {
	pairingID := player.ID
	if opponent.ID < pairingID {
		pairingID = opponent.ID
	}

	playerFirst := player.GoesFirst(idx)
	if !playerFirst && !opponent.GoesFirst(idx) {
		playerFirst = player.ID < opponent.ID
	}

	if playerFirst {
		return GameData{
			RoundNumber:  round,
			Player1Seed:  player.ID,
			Player2Seed:  opponent.ID,
			Player1ID:    playerID,
			Player2ID:    opponentID,
			Player1Score: score,
			Player2Score: opponentScore,
			PairingID:    pairingID,
		}
	}
	return GameData{
		RoundNumber:  round,
		Player1Seed:  opponent.ID,
		Player2Seed:  player.ID,
		Player1ID:    opponentID,
		Player2ID:    playerID,
		Player1Score: opponentScore,
		Player2Score: score,
		PairingID:    pairingID,
	}
}

// indexPersisted строит тот же ключ для сохранённых строк через
// обратное отображение id игрока -> seed. Строка с игроком, которого
// нет в отображении, не индексируется и потому никогда не трогается.
func indexPersisted(games []models.Game, playerIDBySeed map[int]int) map[string]models.Game {
	seedByPlayerID := make(map[int]int, len(playerIDBySeed))
	for seed, id := range playerIDBySeed {
		seedByPlayerID[id] = seed
	}

	indexed := make(map[string]models.Game, len(games))
	for _, g := range games {
		seed1, ok1 := seedByPlayerID[g.Player1ID]
		seed2, ok2 := seedByPlayerID[g.Player2ID]
		if !ok1 || !ok2 {
			continue
		}
		indexed[Key(g.RoundNumber, seed1, seed2, g.IsBye)] = g
	}
	return indexed
}

// scoresChanged: у bye сравнивается только счёт самого игрока, у
// обычной партии - оба. NULL в базе (партия записана до появления
// счёта старым кодом) всегда считается изменением.
func scoresChanged(fresh GameData, stored models.Game) bool {
	if fresh.IsBye {
		return stored.Player1Score == nil || *stored.Player1Score != fresh.Player1Score
	}
	if stored.Player1Score == nil || stored.Player2Score == nil {
		return true
	}
	return *stored.Player1Score != fresh.Player1Score || *stored.Player2Score != fresh.Player2Score
}
