package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sandpit-systems/beachline/models"
)

// MemoryStore implements every repository port in memory. It backs the test
// suite and doubles as the storage-agnostic reference: the service layer only
// ever sees the interfaces.
//
// Every read and write goes through a deep copy so callers can never mutate
// stored state in place.
type MemoryStore struct {
	mu sync.RWMutex

	seq map[string]int

	users        map[int]*models.User
	players      map[int]*models.Player
	tournaments  map[int]*models.Tournament
	entries      map[int]*models.EntryListItem
	matches      map[int]*models.Match
	configs      map[int]*models.ScoringConfig // keyed by tournament id
	runs         []*models.ScoringRun
	fantasyTeams map[int]*models.FantasyTeam
	leagues      map[int]*models.League
	leaderboards map[int][]*models.LeaderboardRow // keyed by league id
	audit        []*models.AuditLogEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seq:          make(map[string]int),
		users:        make(map[int]*models.User),
		players:      make(map[int]*models.Player),
		tournaments:  make(map[int]*models.Tournament),
		entries:      make(map[int]*models.EntryListItem),
		matches:      make(map[int]*models.Match),
		configs:      make(map[int]*models.ScoringConfig),
		fantasyTeams: make(map[int]*models.FantasyTeam),
		leagues:      make(map[int]*models.League),
		leaderboards: make(map[int][]*models.LeaderboardRow),
	}
}

func (m *MemoryStore) nextID(entity string) int {
	m.seq[entity]++
	return m.seq[entity]
}

func intPtrCopy(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func strPtrCopy(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func timePtrCopy(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// --- UserRepository ---

func (m *MemoryStore) Users() UserRepository { return (*memoryUserRepo)(m) }

type memoryUserRepo MemoryStore

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (m *memoryUserRepo) Create(_ context.Context, user *models.User) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return ErrUserEmailConflict
		}
	}
	user.ID = s.nextID("users")
	user.CreatedAt = time.Now().UTC()
	s.users[user.ID] = copyUser(user)
	return nil
}

func (m *memoryUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(user), nil
}

func (m *memoryUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memoryUserRepo) ListByIDs(_ context.Context, ids []int) ([]*models.User, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			users = append(users, copyUser(user))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// --- PlayerRepository ---

func (m *MemoryStore) Players() PlayerRepository { return (*memoryPlayerRepo)(m) }

type memoryPlayerRepo MemoryStore

func copyPlayer(p *models.Player) *models.Player {
	c := *p
	return &c
}

func (m *memoryPlayerRepo) Create(_ context.Context, player *models.Player) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	player.ID = s.nextID("players")
	player.CreatedAt = time.Now().UTC()
	s.players[player.ID] = copyPlayer(player)
	return nil
}

func (m *memoryPlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, ok := s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return copyPlayer(player), nil
}

func (m *memoryPlayerRepo) ListByIDs(_ context.Context, ids []int) ([]*models.Player, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]*models.Player, 0, len(ids))
	for _, id := range ids {
		if player, ok := s.players[id]; ok {
			players = append(players, copyPlayer(player))
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

// --- TournamentRepository ---

func (m *MemoryStore) Tournaments() TournamentRepository { return (*memoryTournamentRepo)(m) }

type memoryTournamentRepo MemoryStore

func copyTournament(t *models.Tournament) *models.Tournament {
	c := *t
	c.Location = strPtrCopy(t.Location)
	c.LogoKey = strPtrCopy(t.LogoKey)
	c.LogoURL = strPtrCopy(t.LogoURL)
	return &c
}

func (m *memoryTournamentRepo) Create(_ context.Context, tournament *models.Tournament) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tournaments {
		if existing.Slug == tournament.Slug {
			return ErrTournamentSlugConflict
		}
	}
	tournament.ID = s.nextID("tournaments")
	now := time.Now().UTC()
	tournament.CreatedAt = now
	tournament.UpdatedAt = now
	s.tournaments[tournament.ID] = copyTournament(tournament)
	return nil
}

func (m *memoryTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	tournament, ok := s.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return copyTournament(tournament), nil
}

func (m *memoryTournamentRepo) List(_ context.Context) ([]*models.Tournament, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return m.listLocked(func(*models.Tournament) bool { return true }), nil
}

func (m *memoryTournamentRepo) ListBySeason(_ context.Context, seasonID string) ([]*models.Tournament, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return m.listLocked(func(t *models.Tournament) bool { return t.SeasonID == seasonID }), nil
}

func (m *memoryTournamentRepo) listLocked(keep func(*models.Tournament) bool) []*models.Tournament {
	s := (*MemoryStore)(m)
	tournaments := make([]*models.Tournament, 0, len(s.tournaments))
	for _, t := range s.tournaments {
		if keep(t) {
			tournaments = append(tournaments, copyTournament(t))
		}
	}
	sort.Slice(tournaments, func(i, j int) bool { return tournaments[i].ID < tournaments[j].ID })
	return tournaments
}

func (m *memoryTournamentRepo) Update(_ context.Context, tournament *models.Tournament) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tournaments[tournament.ID]; !ok {
		return ErrTournamentNotFound
	}
	tournament.UpdatedAt = time.Now().UTC()
	s.tournaments[tournament.ID] = copyTournament(tournament)
	return nil
}

func (m *memoryTournamentRepo) Delete(_ context.Context, id int) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tournaments[id]; !ok {
		return ErrTournamentNotFound
	}
	delete(s.tournaments, id)
	return nil
}

// --- EntryRepository ---

func (m *MemoryStore) Entries() EntryRepository { return (*memoryEntryRepo)(m) }

type memoryEntryRepo MemoryStore

func copyEntry(e *models.EntryListItem) *models.EntryListItem {
	c := *e
	c.ReserveOrder = intPtrCopy(e.ReserveOrder)
	return &c
}

func (m *memoryEntryRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.EntryListItem, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*models.EntryListItem, 0)
	for _, item := range s.entries {
		if item.TournamentID == tournamentID {
			items = append(items, copyEntry(item))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Ranking != items[j].Ranking {
			return items[i].Ranking < items[j].Ranking
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (m *memoryEntryRepo) GetByID(_ context.Context, id int) (*models.EntryListItem, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return copyEntry(item), nil
}

func (m *memoryEntryRepo) ReplaceForTournament(_ context.Context, tournamentID int, items []*models.EntryListItem) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, item := range s.entries {
		if item.TournamentID == tournamentID {
			delete(s.entries, id)
		}
	}
	now := time.Now().UTC()
	for _, item := range items {
		item.TournamentID = tournamentID
		item.ID = s.nextID("entries")
		item.CreatedAt = now
		item.UpdatedAt = now
		s.entries[item.ID] = copyEntry(item)
	}
	return nil
}

func (m *memoryEntryRepo) Update(_ context.Context, item *models.EntryListItem) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[item.ID]; !ok {
		return ErrEntryNotFound
	}
	item.UpdatedAt = time.Now().UTC()
	s.entries[item.ID] = copyEntry(item)
	return nil
}

// --- MatchRepository ---

func (m *MemoryStore) Matches() MatchRepository { return (*memoryMatchRepo)(m) }

type memoryMatchRepo MemoryStore

func copyMatch(match *models.Match) *models.Match {
	c := *match
	c.PairAID = intPtrCopy(match.PairAID)
	c.PairBID = intPtrCopy(match.PairBID)
	c.WinnerPairID = intPtrCopy(match.WinnerPairID)
	c.CompletedAt = timePtrCopy(match.CompletedAt)
	c.SetScores = append([]models.SetScore(nil), match.SetScores...)
	return &c
}

func (m *memoryMatchRepo) Create(_ context.Context, match *models.Match) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	match.ID = s.nextID("matches")
	match.CreatedAt = time.Now().UTC()
	s.matches[match.ID] = copyMatch(match)
	return nil
}

func (m *memoryMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	match, ok := s.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return copyMatch(match), nil
}

func (m *memoryMatchRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Match, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]*models.Match, 0)
	for _, match := range s.matches {
		if match.TournamentID == tournamentID {
			matches = append(matches, copyMatch(match))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		return a.ID < b.ID
	})
	return matches, nil
}

func (m *memoryMatchRepo) Update(_ context.Context, match *models.Match) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[match.ID]; !ok {
		return ErrMatchNotFound
	}
	s.matches[match.ID] = copyMatch(match)
	return nil
}

func (m *memoryMatchRepo) Delete(_ context.Context, id int) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[id]; !ok {
		return ErrMatchNotFound
	}
	delete(s.matches, id)
	return nil
}

// --- ScoringConfigRepository ---

func (m *MemoryStore) ScoringConfigs() ScoringConfigRepository { return (*memoryConfigRepo)(m) }

type memoryConfigRepo MemoryStore

func (m *memoryConfigRepo) Create(_ context.Context, config *models.ScoringConfig) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	config.UpdatedAt = time.Now().UTC()
	c := *config
	s.configs[config.TournamentID] = &c
	return nil
}

func (m *memoryConfigRepo) GetByTournament(_ context.Context, tournamentID int) (*models.ScoringConfig, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	config, ok := s.configs[tournamentID]
	if !ok {
		return nil, ErrScoringConfigNotFound
	}
	c := *config
	return &c, nil
}

func (m *memoryConfigRepo) Update(_ context.Context, config *models.ScoringConfig) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.configs[config.TournamentID]; !ok {
		return ErrScoringConfigNotFound
	}
	config.UpdatedAt = time.Now().UTC()
	c := *config
	s.configs[config.TournamentID] = &c
	return nil
}

// --- ScoringRunRepository ---

func (m *MemoryStore) ScoringRuns() ScoringRunRepository { return (*memoryRunRepo)(m) }

type memoryRunRepo MemoryStore

func copyRun(run *models.ScoringRun) *models.ScoringRun {
	c := *run
	c.Totals = append([]models.UserTotal(nil), run.Totals...)
	return &c
}

func (m *memoryRunRepo) Create(_ context.Context, run *models.ScoringRun) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	run.ID = s.nextID("runs")
	s.runs = append(s.runs, copyRun(run))
	return nil
}

func (m *memoryRunRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.ScoringRun, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*models.ScoringRun, 0)
	for i := len(s.runs) - 1; i >= 0; i-- {
		if s.runs[i].TournamentID == tournamentID {
			runs = append(runs, copyRun(s.runs[i]))
		}
	}
	return runs, nil
}

func (m *memoryRunRepo) LatestByTournament(_ context.Context, tournamentID int) (*models.ScoringRun, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.runs) - 1; i >= 0; i-- {
		if s.runs[i].TournamentID == tournamentID {
			return copyRun(s.runs[i]), nil
		}
	}
	return nil, ErrScoringRunNotFound
}

// --- FantasyTeamRepository ---

func (m *MemoryStore) FantasyTeams() FantasyTeamRepository { return (*memoryFantasyRepo)(m) }

type memoryFantasyRepo MemoryStore

func copyFantasyTeam(t *models.FantasyTeam) *models.FantasyTeam {
	c := *t
	c.PlayerIDs = append([]int(nil), t.PlayerIDs...)
	return &c
}

func (m *memoryFantasyRepo) Upsert(_ context.Context, team *models.FantasyTeam) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.fantasyTeams {
		if existing.TournamentID == team.TournamentID && existing.UserID == team.UserID {
			team.ID = existing.ID
			team.UpdatedAt = time.Now().UTC()
			s.fantasyTeams[team.ID] = copyFantasyTeam(team)
			return nil
		}
	}
	team.ID = s.nextID("fantasy_teams")
	team.UpdatedAt = time.Now().UTC()
	s.fantasyTeams[team.ID] = copyFantasyTeam(team)
	return nil
}

func (m *memoryFantasyRepo) GetByTournamentAndUser(_ context.Context, tournamentID, userID int) (*models.FantasyTeam, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, team := range s.fantasyTeams {
		if team.TournamentID == tournamentID && team.UserID == userID {
			return copyFantasyTeam(team), nil
		}
	}
	return nil, ErrFantasyTeamNotFound
}

func (m *memoryFantasyRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.FantasyTeam, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	teams := make([]*models.FantasyTeam, 0)
	for _, team := range s.fantasyTeams {
		if team.TournamentID == tournamentID {
			teams = append(teams, copyFantasyTeam(team))
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].UserID < teams[j].UserID })
	return teams, nil
}

// --- LeagueRepository ---

func (m *MemoryStore) Leagues() LeagueRepository { return (*memoryLeagueRepo)(m) }

type memoryLeagueRepo MemoryStore

func copyLeague(l *models.League) *models.League {
	c := *l
	c.TieBreakers = append([]string(nil), l.TieBreakers...)
	return &c
}

func copyRow(r *models.LeaderboardRow) *models.LeaderboardRow {
	c := *r
	return &c
}

func (m *memoryLeagueRepo) Create(_ context.Context, league *models.League) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	league.ID = s.nextID("leagues")
	league.UpdatedAt = time.Now().UTC()
	s.leagues[league.ID] = copyLeague(league)
	return nil
}

func (m *memoryLeagueRepo) GetByID(_ context.Context, id int) (*models.League, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	league, ok := s.leagues[id]
	if !ok {
		return nil, ErrLeagueNotFound
	}
	return copyLeague(league), nil
}

func (m *memoryLeagueRepo) List(_ context.Context) ([]*models.League, error) {
	return m.listWhere(func(*models.League) bool { return true })
}

func (m *memoryLeagueRepo) ListBySeason(_ context.Context, seasonID string) ([]*models.League, error) {
	return m.listWhere(func(l *models.League) bool { return l.SeasonID == seasonID })
}

func (m *memoryLeagueRepo) listWhere(keep func(*models.League) bool) ([]*models.League, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	leagues := make([]*models.League, 0)
	for _, league := range s.leagues {
		if keep(league) {
			leagues = append(leagues, copyLeague(league))
		}
	}
	sort.Slice(leagues, func(i, j int) bool { return leagues[i].ID < leagues[j].ID })
	return leagues, nil
}

func (m *memoryLeagueRepo) Update(_ context.Context, league *models.League) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leagues[league.ID]; !ok {
		return ErrLeagueNotFound
	}
	league.UpdatedAt = time.Now().UTC()
	s.leagues[league.ID] = copyLeague(league)
	return nil
}

func (m *memoryLeagueRepo) Delete(_ context.Context, id int) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leagues[id]; !ok {
		return ErrLeagueNotFound
	}
	delete(s.leagues, id)
	delete(s.leaderboards, id)
	return nil
}

func (m *memoryLeagueRepo) ReplaceRows(_ context.Context, leagueID int, rows []*models.LeaderboardRow) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]*models.LeaderboardRow, len(rows))
	for i, row := range rows {
		row.LeagueID = leagueID
		stored[i] = copyRow(row)
	}
	s.leaderboards[leagueID] = stored
	return nil
}

func (m *memoryLeagueRepo) ListRows(_ context.Context, leagueID int) ([]*models.LeaderboardRow, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]*models.LeaderboardRow, 0, len(s.leaderboards[leagueID]))
	for _, row := range s.leaderboards[leagueID] {
		rows = append(rows, copyRow(row))
	}
	return rows, nil
}

// --- AuditRepository ---

func (m *MemoryStore) Audit() AuditRepository { return (*memoryAuditRepo)(m) }

type memoryAuditRepo MemoryStore

func copyAuditEntry(e *models.AuditLogEntry) *models.AuditLogEntry {
	c := *e
	c.Before = append([]byte(nil), e.Before...)
	c.After = append([]byte(nil), e.After...)
	if e.Before == nil {
		c.Before = nil
	}
	if e.After == nil {
		c.After = nil
	}
	return &c
}

func (m *memoryAuditRepo) Insert(_ context.Context, entry *models.AuditLogEntry) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.nextID("audit")
	s.audit = append(s.audit, copyAuditEntry(entry))
	return nil
}

func (m *memoryAuditRepo) List(_ context.Context, filter AuditFilter) ([]*models.AuditLogEntry, int, error) {
	s := (*MemoryStore)(m)
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.AuditLogEntry, 0, len(s.audit))
	for i := len(s.audit) - 1; i >= 0; i-- {
		entry := s.audit[i]
		if filter.Action != nil && entry.Action != *filter.Action {
			continue
		}
		if filter.EntityType != nil && entry.EntityType != *filter.EntityType {
			continue
		}
		if filter.EntityID != nil && entry.EntityID != *filter.EntityID {
			continue
		}
		if filter.ActorUserID != nil && entry.ActorUserID != *filter.ActorUserID {
			continue
		}
		if filter.From != nil && entry.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && entry.CreatedAt.After(*filter.To) {
			continue
		}
		matched = append(matched, copyAuditEntry(entry))
	}

	total := len(matched)
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= total {
		return []*models.AuditLogEntry{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}
