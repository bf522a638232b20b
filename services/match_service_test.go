package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/candemet/matchup/models"
	"github.com/candemet/matchup/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore — in-memory замена слоя репозиториев. WithinTx снимает копию
// состояния и восстанавливает её при ошибке, воспроизводя семантику
// rollback настоящей транзакции. Блокировка лестницы моделируется мьютексом,
// который удерживается до конца транзакции, как строковый FOR UPDATE.
type fakeStore struct {
	matches map[int]*models.Match
	teams   map[int]*models.Team
	ladders map[int]*models.Ladder

	stateMu  sync.Mutex
	ladderMu sync.Mutex

	// afterMatchLock вызывается после чтения строки матча, до блокировки
	// лестницы. Позволяет выстроить нужное чередование двух проведений.
	afterMatchLock func()

	recomputeErr  error
	recomputeZero bool
	rollbacks     int
	commits       int
	ladderLocks   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		matches: make(map[int]*models.Match),
		teams:   make(map[int]*models.Team),
		ladders: make(map[int]*models.Ladder),
	}
}

// fakeTx отмечает блокировки, взятые внутри одной транзакции, чтобы
// WithinTx освободил их при commit или rollback.
type fakeTx struct {
	ladderLocked bool
}

func (t *fakeTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (f *fakeStore) snapshot() (map[int]*models.Match, map[int]*models.Team) {
	matches := make(map[int]*models.Match, len(f.matches))
	for id, m := range f.matches {
		c := *m
		matches[id] = &c
	}
	teams := make(map[int]*models.Team, len(f.teams))
	for id, t := range f.teams {
		c := *t
		if t.Rank != nil {
			rank := *t.Rank
			c.Rank = &rank
		}
		teams[id] = &c
	}
	return matches, teams
}

func (f *fakeStore) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	tx := &fakeTx{}
	f.stateMu.Lock()
	matches, teams := f.snapshot()
	f.stateMu.Unlock()

	err := fn(tx)
	if err != nil {
		f.matches, f.teams = matches, teams
		f.rollbacks++
	} else {
		f.commits++
	}
	if tx.ladderLocked {
		f.ladderMu.Unlock()
	}
	return err
}

// MatchRepository

func (f *fakeStore) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	match.ID = len(f.matches) + 1
	f.matches[match.ID] = match
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	match, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return match, nil
}

func (f *fakeStore) ListByLadder(ctx context.Context, exec repositories.SQLExecutor, ladderID int, status *models.MatchStatus) ([]*models.Match, error) {
	matches := make([]*models.Match, 0)
	for _, m := range f.matches {
		if m.LadderID == ladderID && (status == nil || m.Status == *status) {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func (f *fakeStore) GetForSettlement(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.MatchSnapshot, error) {
	match, ok := f.matches[id]
	if !ok || !match.Status.Settleable() {
		return nil, repositories.ErrMatchNotFound
	}
	if f.afterMatchLock != nil {
		f.afterMatchLock()
	}
	return &models.MatchSnapshot{
		MatchID:    match.ID,
		LadderID:   match.LadderID,
		HomeTeamID: match.HomeTeamID,
		AwayTeamID: match.AwayTeamID,
		Status:     match.Status,
	}, nil
}

func (f *fakeStore) CompleteMatch(ctx context.Context, exec repositories.SQLExecutor, id, winnerTeamID int, scoreHome, scoreAway *string, reportedBy int) error {
	match, ok := f.matches[id]
	if !ok || !match.Status.Settleable() {
		return repositories.ErrMatchNotFound
	}
	match.Status = models.MatchStatusCompleted
	match.WinnerTeamID = &winnerTeamID
	match.ScoreHome = scoreHome
	match.ScoreAway = scoreAway
	match.ReportedBy = &reportedBy
	return nil
}

// TeamRepository (методы, не пересекающиеся по имени с MatchRepository,
// плюс общие Create/GetByID не нужны сервису матчей напрямую)

type fakeTeamRepo struct{ store *fakeStore }

func (f *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	team.ID = len(f.store.teams) + 1
	f.store.teams[team.ID] = team
	return nil
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	team, ok := f.store.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return team, nil
}

func (f *fakeTeamRepo) ListActive(ctx context.Context, exec repositories.SQLExecutor, sportName string) ([]*models.Team, error) {
	return nil, nil
}

func (f *fakeTeamRepo) AddMember(ctx context.Context, exec repositories.SQLExecutor, teamID, userID int) error {
	return nil
}

func (f *fakeTeamRepo) HasTeamForSport(ctx context.Context, exec repositories.SQLExecutor, userID int, sportName string) (bool, error) {
	return false, nil
}

func (f *fakeTeamRepo) UpdateRating(ctx context.Context, exec repositories.SQLExecutor, teamID, newRating int) error {
	team, ok := f.store.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.Rating = newRating
	return nil
}

func (f *fakeTeamRepo) GetRatings(ctx context.Context, exec repositories.SQLExecutor, homeTeamID, awayTeamID int) (int, int, error) {
	home, ok := f.store.teams[homeTeamID]
	if !ok {
		return 0, 0, repositories.ErrTeamNotFound
	}
	away, ok := f.store.teams[awayTeamID]
	if !ok {
		return 0, 0, repositories.ErrTeamNotFound
	}
	return home.Rating, away.Rating, nil
}

func (f *fakeTeamRepo) RecomputeLadderRanks(ctx context.Context, exec repositories.SQLExecutor, ladderID int) (int, error) {
	if f.store.recomputeErr != nil {
		return 0, f.store.recomputeErr
	}
	if f.store.recomputeZero {
		return 0, nil
	}
	active := make([]*models.Team, 0)
	for _, t := range f.store.teams {
		if t.LadderID != ladderID {
			continue
		}
		if !t.Active {
			t.Rank = nil
			continue
		}
		active = append(active, t)
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].Rating != active[j].Rating {
			return active[i].Rating > active[j].Rating
		}
		return active[i].ID < active[j].ID
	})
	for i, t := range active {
		rank := i + 1
		t.Rank = &rank
	}
	return len(active), nil
}

func (f *fakeTeamRepo) ListLadderStandings(ctx context.Context, exec repositories.SQLExecutor, ladderID int) ([]*models.Team, error) {
	return nil, nil
}

// LadderRepository

type fakeLadderRepo struct{ store *fakeStore }

func (f *fakeLadderRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Ladder, error) {
	ladder, ok := f.store.ladders[id]
	if !ok {
		return nil, repositories.ErrLadderNotFound
	}
	return ladder, nil
}

func (f *fakeLadderRepo) GetActiveBySport(ctx context.Context, exec repositories.SQLExecutor, sportName string) (*models.Ladder, error) {
	for _, l := range f.store.ladders {
		if l.Active {
			return l, nil
		}
	}
	return nil, repositories.ErrLadderNotFound
}

func (f *fakeLadderRepo) LockForSettlement(ctx context.Context, exec repositories.SQLExecutor, id int) (int, error) {
	ladder, ok := f.store.ladders[id]
	if !ok {
		return 0, repositories.ErrLadderNotFound
	}
	if tx, ok := exec.(*fakeTx); ok && !tx.ladderLocked {
		f.store.ladderMu.Lock()
		tx.ladderLocked = true
	}
	f.store.ladderLocks++
	return ladder.KFactor, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []*SettlementResult
}

func (n *recordingNotifier) SettlementCompleted(ctx context.Context, result *SettlementResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, result)
}

func newSettlementFixture() (*fakeStore, MatchService, *recordingNotifier) {
	store := newFakeStore()
	store.ladders[1] = &models.Ladder{ID: 1, KFactor: 32, Active: true}

	rank1, rank2, rank3, staleRank := 1, 2, 3, 4
	store.teams[10] = &models.Team{ID: 10, LadderID: 1, Name: "Smash Bros", Rating: 1200, Rank: &rank1, Active: true}
	store.teams[20] = &models.Team{ID: 20, LadderID: 1, Name: "Net Gains", Rating: 1200, Rank: &rank2, Active: true}
	store.teams[30] = &models.Team{ID: 30, LadderID: 1, Name: "Drop Shots", Rating: 1100, Rank: &rank3, Active: true}
	store.teams[40] = &models.Team{ID: 40, LadderID: 1, Name: "Retired", Rating: 1500, Rank: &staleRank, Active: false}

	store.matches[100] = &models.Match{
		ID: 100, LadderID: 1, HomeTeamID: 10, AwayTeamID: 20,
		Status: models.MatchStatusPending,
	}

	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewMatchService(
		store,
		store,
		&fakeTeamRepo{store: store},
		&fakeLadderRepo{store: store},
		notifier,
		nil,
		logger,
	)
	return store, svc, notifier
}

func TestReportResultSettlesMatch(t *testing.T) {
	store, svc, notifier := newSettlementFixture()

	scoreHome, scoreAway := "6-3 6-4", "3-6 4-6"
	result, err := svc.ReportResult(context.Background(), 100, ReportResultInput{
		WinnerTeamID: 10,
		ScoreHome:    &scoreHome,
		ScoreAway:    &scoreAway,
		ReportedBy:   7,
	})
	require.NoError(t, err)

	assert.Equal(t, 1216, result.NewWinnerRating)
	assert.Equal(t, 1184, result.NewLoserRating)
	assert.Equal(t, 20, result.LoserTeamID)
	assert.Equal(t, 3, result.RankedTeams)

	match := store.matches[100]
	assert.Equal(t, models.MatchStatusCompleted, match.Status)
	require.NotNil(t, match.WinnerTeamID)
	assert.Equal(t, 10, *match.WinnerTeamID)
	require.NotNil(t, match.ScoreHome)
	assert.Equal(t, "6-3 6-4", *match.ScoreHome)

	assert.Equal(t, 1216, store.teams[10].Rating)
	assert.Equal(t, 1184, store.teams[20].Rating)

	// Ранги плотные (1..3) по убыванию рейтинга; выбывшая команда
	// теряет свой прежний ранг.
	assert.Equal(t, 1, *store.teams[10].Rank)
	assert.Equal(t, 2, *store.teams[20].Rank)
	assert.Equal(t, 3, *store.teams[30].Rank)
	assert.Nil(t, store.teams[40].Rank)

	assert.Equal(t, 1, store.commits)
	assert.Equal(t, 0, store.rollbacks)
	assert.Equal(t, 1, store.ladderLocks)
	require.Len(t, notifier.results, 1)
	assert.Equal(t, 100, notifier.results[0].MatchID)
}

func TestReportResultUnderdogWin(t *testing.T) {
	store, svc, _ := newSettlementFixture()
	store.teams[10].Rating = 1000
	store.teams[20].Rating = 1400

	result, err := svc.ReportResult(context.Background(), 100, ReportResultInput{WinnerTeamID: 10})
	require.NoError(t, err)

	assert.Equal(t, 1029, result.NewWinnerRating)
	assert.Equal(t, 1371, result.NewLoserRating)
	// 1371 > 1100 > 1029: таблица по убыванию рейтинга.
	assert.Equal(t, 1, *store.teams[20].Rank)
	assert.Equal(t, 2, *store.teams[30].Rank)
	assert.Equal(t, 3, *store.teams[10].Rank)
}

func TestReportResultConcurrentSettlementsSameLadder(t *testing.T) {
	store, svc, notifier := newSettlementFixture()
	store.matches[101] = &models.Match{
		ID: 101, LadderID: 1, HomeTeamID: 10, AwayTeamID: 20,
		Status: models.MatchStatusPending,
	}

	// Оба проведения читают свою строку матча до того, как кто-либо возьмёт
	// блокировку лестницы. Если бы рейтинги снимались на этом шаге, второе
	// проведение посчитало бы дельту от базы 1200 и затёрло первую.
	var entered sync.WaitGroup
	entered.Add(2)
	store.afterMatchLock = func() {
		entered.Done()
		entered.Wait()
	}

	var wg sync.WaitGroup
	for _, matchID := range []int{100, 101} {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := svc.ReportResult(context.Background(), id, ReportResultInput{WinnerTeamID: 10})
			assert.NoError(t, err)
		}(matchID)
	}
	wg.Wait()

	// Последовательная семантика: 1200 -> 1216 -> 1231. Вторая дельта
	// считается от 1216/1184, ни одно обновление не теряется.
	assert.Equal(t, 1231, store.teams[10].Rating)
	assert.Equal(t, 1169, store.teams[20].Rating)
	assert.Equal(t, models.MatchStatusCompleted, store.matches[100].Status)
	assert.Equal(t, models.MatchStatusCompleted, store.matches[101].Status)
	assert.Equal(t, 2, store.commits)
	assert.Equal(t, 0, store.rollbacks)
	assert.Equal(t, 2, store.ladderLocks)
	assert.Len(t, notifier.results, 2)
}

func TestReportResultRequiresWinner(t *testing.T) {
	store, svc, notifier := newSettlementFixture()

	_, err := svc.ReportResult(context.Background(), 100, ReportResultInput{})
	assert.ErrorIs(t, err, ErrWinnerRequired)

	assert.Equal(t, models.MatchStatusPending, store.matches[100].Status)
	assert.Equal(t, 0, store.commits)
	assert.Empty(t, notifier.results)
}

func TestReportResultRejectsForeignWinner(t *testing.T) {
	store, svc, _ := newSettlementFixture()

	_, err := svc.ReportResult(context.Background(), 100, ReportResultInput{WinnerTeamID: 30})
	assert.ErrorIs(t, err, ErrInvalidWinner)

	assert.Equal(t, models.MatchStatusPending, store.matches[100].Status)
	assert.Equal(t, 1200, store.teams[10].Rating)
	assert.Equal(t, 1200, store.teams[20].Rating)
	assert.Equal(t, 1, store.rollbacks)
}

func TestReportResultUnknownMatch(t *testing.T) {
	_, svc, _ := newSettlementFixture()

	_, err := svc.ReportResult(context.Background(), 999, ReportResultInput{WinnerTeamID: 10})
	assert.ErrorIs(t, err, ErrMatchNotSettleable)
}

func TestReportResultTerminalStatuses(t *testing.T) {
	for _, status := range []models.MatchStatus{
		models.MatchStatusCompleted,
		models.MatchStatusDeclined,
		models.MatchStatusDisputed,
	} {
		t.Run(string(status), func(t *testing.T) {
			store, svc, notifier := newSettlementFixture()
			store.matches[100].Status = status

			_, err := svc.ReportResult(context.Background(), 100, ReportResultInput{WinnerTeamID: 10})
			assert.ErrorIs(t, err, ErrMatchNotSettleable)
			assert.Equal(t, 1200, store.teams[10].Rating)
			assert.Empty(t, notifier.results)
		})
	}
}

func TestReportResultRatedAtMostOnce(t *testing.T) {
	store, svc, notifier := newSettlementFixture()

	_, err := svc.ReportResult(context.Background(), 100, ReportResultInput{WinnerTeamID: 10})
	require.NoError(t, err)

	_, err = svc.ReportResult(context.Background(), 100, ReportResultInput{WinnerTeamID: 20})
	assert.ErrorIs(t, err, ErrMatchNotSettleable)

	// Рейтинги изменились ровно один раз.
	assert.Equal(t, 1216, store.teams[10].Rating)
	assert.Equal(t, 1184, store.teams[20].Rating)
	assert.Equal(t, 1, store.commits)
	assert.Len(t, notifier.results, 1)
}

func TestReportResultRollsBackOnRankFailure(t *testing.T) {
	store, svc, notifier := newSettlementFixture()
	store.recomputeErr = errors.New("storage fault")

	_, err := svc.ReportResult(context.Background(), 100, ReportResultInput{WinnerTeamID: 10})
	require.Error(t, err)

	// Ни статус, ни рейтинги не видны после отката.
	assert.Equal(t, models.MatchStatusPending, store.matches[100].Status)
	assert.Nil(t, store.matches[100].WinnerTeamID)
	assert.Equal(t, 1200, store.teams[10].Rating)
	assert.Equal(t, 1200, store.teams[20].Rating)
	assert.Equal(t, 1, store.rollbacks)
	assert.Equal(t, 0, store.commits)
	assert.Empty(t, notifier.results)
}

func TestReportResultInvariantViolationOnEmptyLadder(t *testing.T) {
	store, svc, _ := newSettlementFixture()
	store.recomputeZero = true

	_, err := svc.ReportResult(context.Background(), 100, ReportResultInput{WinnerTeamID: 10})
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Equal(t, models.MatchStatusPending, store.matches[100].Status)
	assert.Equal(t, 1, store.rollbacks)
}

func TestCreateChallengeValidatesTeams(t *testing.T) {
	store, svc, _ := newSettlementFixture()

	_, err := svc.CreateChallenge(context.Background(), CreateChallengeInput{
		LadderID: 1, HomeTeamID: 10, AwayTeamID: 10,
	})
	assert.ErrorIs(t, err, ErrSameTeam)

	_, err = svc.CreateChallenge(context.Background(), CreateChallengeInput{
		LadderID: 1, HomeTeamID: 10, AwayTeamID: 999,
	})
	assert.ErrorIs(t, err, ErrTeamNotFound)

	store.teams[50] = &models.Team{ID: 50, LadderID: 2, Name: "Other Ladder", Rating: 1200, Active: true}
	_, err = svc.CreateChallenge(context.Background(), CreateChallengeInput{
		LadderID: 1, HomeTeamID: 10, AwayTeamID: 50,
	})
	assert.ErrorIs(t, err, ErrTeamsLadderMismatch)

	match, err := svc.CreateChallenge(context.Background(), CreateChallengeInput{
		LadderID: 1, HomeTeamID: 10, AwayTeamID: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPending, match.Status)
}
