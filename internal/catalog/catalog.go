// Package catalog holds the static world / data-center / region catalog.
// It is built once at startup from the game-data sheets plus the embedded
// static catalog and is immutable afterwards, so all accessors are
// lock-free and hand out copies.
package catalog

import (
	"sort"
	"strconv"
	"unicode"
	"unicode/utf8"

	"marketboard/internal/apperr"
	"marketboard/internal/gamedata"
	"marketboard/internal/models"
)

// Worlds that are public in practice but not flagged as such in the sheet.
var forcedWorldIDs = map[int32]bool{408: true, 409: true, 410: true, 411: true}

// World id 25 carries the name "Chaos", which collides with the European
// data center of the same name, and is excluded outright.
const excludedWorldID = 25

var regions = []models.Region{
	{ID: 1, Name: "Japan"},
	{ID: 2, Name: "North-America"},
	{ID: 3, Name: "Europe"},
	{ID: 4, Name: "Oceania"},
	{ID: 5, Name: "China"},
	{ID: 6, Name: "Eorzea"}, // ?
	{ID: 7, Name: "Korea"},
}

// WorldOrDc is the disjoint union Resolve produces. Exactly one of the two
// fields is non-nil.
type WorldOrDc struct {
	World *models.World
	Dc    *models.DataCenter
}

// Catalog answers world/DC/region and marketable-item queries.
type Catalog struct {
	worldsByID   map[int32]string
	worldsByName map[string]int32
	worldIDs     []int32
	dcs          []models.DataCenter
	dcsByFolded  map[string]int
	marketable   []int32
	stackSizes   map[int32]int32
}

// New builds the catalog from the sheet dump and the static CN/KR catalog.
func New(sheets *gamedata.Sheets, static *gamedata.StaticCatalog) *Catalog {
	c := &Catalog{
		worldsByID:   make(map[int32]string),
		worldsByName: make(map[string]int32),
		dcsByFolded:  make(map[string]int),
		stackSizes:   make(map[int32]int32),
	}

	worldsByDC := make(map[int32][]int32)
	addWorld := func(row gamedata.WorldRow) {
		if row.ID == excludedWorldID {
			return
		}
		if !forcedWorldIDs[row.ID] && (row.DataCenter <= 0 || !row.IsPublic) {
			return
		}
		c.worldsByID[row.ID] = row.Name
		c.worldsByName[row.Name] = row.ID
		worldsByDC[row.DataCenter] = append(worldsByDC[row.DataCenter], row.ID)
	}
	for _, row := range sheets.Worlds {
		addWorld(row)
	}
	for _, row := range static.Worlds {
		addWorld(row)
	}

	addDC := func(row gamedata.DataCenterRow, sheetRow bool) {
		if sheetRow && (row.ID <= 0 || row.ID >= 99) {
			return
		}
		ids := worldsByDC[row.ID]
		if len(ids) == 0 {
			return
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		c.dcs = append(c.dcs, models.DataCenter{
			Name:     row.Name,
			Region:   regionName(row.Region),
			WorldIDs: ids,
		})
	}
	for _, row := range sheets.DataCenters {
		addDC(row, true)
	}
	for _, row := range static.DataCenters {
		addDC(row, false)
	}
	for i, dc := range c.dcs {
		c.dcsByFolded[foldName(dc.Name)] = i
	}

	for id := range c.worldsByID {
		c.worldIDs = append(c.worldIDs, id)
	}
	sort.Slice(c.worldIDs, func(i, j int) bool { return c.worldIDs[i] < c.worldIDs[j] })

	for _, item := range sheets.Items {
		if item.ItemSearchCategory >= 1 {
			c.marketable = append(c.marketable, item.ID)
			c.stackSizes[item.ID] = item.StackSize
		}
	}
	sort.Slice(c.marketable, func(i, j int) bool { return c.marketable[i] < c.marketable[j] })

	return c
}

// WorldsByID returns a copy of the id → name map.
func (c *Catalog) WorldsByID() map[int32]string {
	out := make(map[int32]string, len(c.worldsByID))
	for k, v := range c.worldsByID {
		out[k] = v
	}
	return out
}

// WorldsByName returns a copy of the name → id map.
func (c *Catalog) WorldsByName() map[string]int32 {
	out := make(map[string]int32, len(c.worldsByName))
	for k, v := range c.worldsByName {
		out[k] = v
	}
	return out
}

// WorldIDs returns the sorted set of known world ids.
func (c *Catalog) WorldIDs() []int32 {
	return append([]int32(nil), c.worldIDs...)
}

// WorldName returns the name for a known world id.
func (c *Catalog) WorldName(id int32) (string, bool) {
	name, ok := c.worldsByID[id]
	return name, ok
}

// MarketableItems returns the sorted set of marketable item ids.
func (c *Catalog) MarketableItems() []int32 {
	return append([]int32(nil), c.marketable...)
}

// IsMarketable reports whether the item can appear on the market board.
func (c *Catalog) IsMarketable(itemID int32) bool {
	i := sort.Search(len(c.marketable), func(i int) bool { return c.marketable[i] >= itemID })
	return i < len(c.marketable) && c.marketable[i] == itemID
}

// StackSize returns the stack size for a marketable item, 0 otherwise.
func (c *Catalog) StackSize(itemID int32) int32 {
	return c.stackSizes[itemID]
}

// DataCenters returns a copy of the data-center list.
func (c *Catalog) DataCenters() []models.DataCenter {
	out := make([]models.DataCenter, len(c.dcs))
	for i, dc := range c.dcs {
		dc.WorldIDs = append([]int32(nil), dc.WorldIDs...)
		out[i] = dc
	}
	return out
}

// Regions returns the static region table.
func (c *Catalog) Regions() []models.Region {
	return append([]models.Region(nil), regions...)
}

// Resolve parses a worldOrDc token. A token that parses as a positive
// integer is treated purely as a world id: it resolves to that world or
// fails, never falling through to name matching. Non-numeric tokens are
// normalized to upper(first)+lower(rest) and matched against world names,
// then against data-center names (case-insensitive exact).
func (c *Catalog) Resolve(token string) (WorldOrDc, error) {
	if token == "" {
		return WorldOrDc{}, apperr.NotFound("empty world/dc token")
	}

	if id, err := strconv.ParseInt(token, 10, 32); err == nil && id > 0 {
		if name, ok := c.worldsByID[int32(id)]; ok {
			return WorldOrDc{World: &models.World{ID: int32(id), Name: name}}, nil
		}
		return WorldOrDc{}, apperr.NotFound("unknown world id " + token)
	}

	name := normalizeWorldName(token)
	if id, ok := c.worldsByName[name]; ok {
		return WorldOrDc{World: &models.World{ID: id, Name: name}}, nil
	}

	if i, ok := c.dcsByFolded[foldName(token)]; ok {
		dc := c.dcs[i]
		dc.WorldIDs = append([]int32(nil), dc.WorldIDs...)
		return WorldOrDc{Dc: &dc}, nil
	}

	return WorldOrDc{}, apperr.NotFound("unknown world or data center " + token)
}

// normalizeWorldName canonicalizes to upper(first)+lower(rest), applied
// once. Identity for non-cased scripts (CN/KR world names).
func normalizeWorldName(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}
	rest := s[size:]
	out := make([]rune, 0, len(s))
	out = append(out, unicode.ToUpper(first))
	for _, r := range rest {
		out = append(out, unicode.ToLower(r))
	}
	return string(out)
}

func foldName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, unicode.ToLower(r))
	}
	return string(out)
}

func regionName(id uint8) string {
	for _, r := range regions {
		if r.ID == id {
			return r.Name
		}
	}
	return ""
}
