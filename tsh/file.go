package tsh

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// File - распарсенный турнирный файл. Уровень доверия: официальный
// экспорт движка, но структурно не гарантирован, поэтому всё, что можно,
// проверяется при декодировании, а необязательные поля допускают
// отсутствие.
type File struct {
	Divisions []Division `json:"divisions"`
}

// Division - дивизион из файла. Нулевой индекс Players всегда
// nil-заглушка (bye), настоящие игроки начинаются с индекса 1.
type Division struct {
	Name    string    `json:"name"`
	Players []*Player `json:"players"`
}

// Player - игрок в представлении файла. ID - 1-based seed, совпадающий
// с позицией в массиве Players.
type Player struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Rating   int    `json:"rating"`
	Photo    string `json:"photo,omitempty"`
	Scores   []int  `json:"scores"`
	Pairings []int  `json:"pairings"`
	Etc      Etc    `json:"etc"`
}

// Etc - параллельные массивы из блока etc. Raw хранит блок целиком
// (включая незнакомые ключи вроде xtid) для сквозной записи в etc_data.
type Etc struct {
	P12  []int `json:"p12"`
	NewR []int `json:"newr"`
	Raw  map[string]any `json:"-"`
}

// Player возвращает игрока по seed или nil, если seed вне диапазона
// либо игрок снят с турнира. Обычно seed совпадает с позицией в
// массиве, но на это не полагаемся.
func (d *Division) Player(seed int) *Player {
	if seed > 0 && seed < len(d.Players) {
		if p := d.Players[seed]; p != nil && p.ID == seed {
			return p
		}
	}
	for _, p := range d.Players {
		if p != nil && p.ID == seed {
			return p
		}
	}
	return nil
}

// Score возвращает счёт игрока в раунде (0-based индекс) и false, если
// раунд ещё не сыгран (записи в scores нет). Отсутствие записи - это
// «раунд не сыгран», а не ноль очков.
func (p *Player) Score(round int) (int, bool) {
	if round < 0 || round >= len(p.Scores) {
		return 0, false
	}
	return p.Scores[round], true
}

// GoesFirst сообщает, ходит ли игрок первым в раунде (etc.p12 == 1).
func (p *Player) GoesFirst(round int) bool {
	return round >= 0 && round < len(p.Etc.P12) && p.Etc.P12[round] == 1
}

// CurrentRating - последний элемент истории рейтингов, либо начальный
// рейтинг, если истории ещё нет.
func (p *Player) CurrentRating() int {
	if len(p.Etc.NewR) > 0 {
		return p.Etc.NewR[len(p.Etc.NewR)-1]
	}
	return p.Rating
}

var crossRefSuffix = regexp.MustCompile(`:XT\d+$`)

// CleanName - имя без служебного суффикса кросс-ссылки (":XT12345"),
// который движок дописывает к имени игрока.
func (p *Player) CleanName() string {
	return crossRefSuffix.ReplaceAllString(p.Name, "")
}

// EtcJSON - сериализованный блок etc для сквозного хранения.
func (p *Player) EtcJSON() (json.RawMessage, error) {
	if p.Etc.Raw == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(p.Etc.Raw)
}

// DecodeFile строит типизированный File из значения, полученного от
// ParseLiteral. Падает только на структурных проблемах (нет divisions,
// дивизион не объект); отсутствующие необязательные поля игрока
// превращаются в пустые значения.
func DecodeFile(root map[string]any) (*File, error) {
	rawDivs, ok := root["divisions"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing divisions array", ErrParse)
	}

	f := &File{Divisions: make([]Division, 0, len(rawDivs))}
	for i, rd := range rawDivs {
		obj, ok := rd.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: division %d is not an object", ErrParse, i)
		}
		div := Division{Name: asString(obj["name"])}
		rawPlayers, _ := obj["players"].([]any)
		div.Players = make([]*Player, 0, len(rawPlayers))
		for _, rp := range rawPlayers {
			pObj, ok := rp.(map[string]any)
			if !ok {
				// null-заглушка на нулевой позиции и снятые игроки.
				div.Players = append(div.Players, nil)
				continue
			}
			div.Players = append(div.Players, decodePlayer(pObj))
		}
		f.Divisions = append(f.Divisions, div)
	}
	return f, nil
}

func decodePlayer(obj map[string]any) *Player {
	p := &Player{
		ID:       asInt(obj["id"]),
		Name:     asString(obj["name"]),
		Rating:   asInt(obj["rating"]),
		Photo:    asString(obj["photo"]),
		Scores:   asIntSlice(obj["scores"]),
		Pairings: asIntSlice(obj["pairings"]),
	}
	if etc, ok := obj["etc"].(map[string]any); ok {
		p.Etc = Etc{
			P12:  asIntSlice(etc["p12"]),
			NewR: asIntSlice(etc["newr"]),
			Raw:  etc,
		}
	}
	return p
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	f, _ := v.(float64)
	return int(f)
}

func asIntSlice(v any) []int {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int, len(arr))
	for i, el := range arr {
		out[i] = asInt(el)
	}
	return out
}
