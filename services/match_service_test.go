package services

import (
	"testing"
	"time"

	"github.com/SAT-Duel/satduel/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMatchService(db *gorm.DB) *MatchService {
	return &MatchService{
		DB:            db,
		Profiles:      NewProfileService(db),
		AllowResubmit: true,
	}
}

// fillRoom pairs two fresh users and returns the battling room.
func fillRoom(t *testing.T, s *MatchService, user1, user2 string) *models.Room {
	t.Helper()

	first, err := s.Enqueue(user1)
	require.NoError(t, err)
	require.Equal(t, models.RoomSearching, first.Status)
	require.False(t, first.IsFull())

	second, err := s.Enqueue(user2)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "second enqueue must join the open room")

	room, err := s.GetRoom(first.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoomBattling, room.Status)
	require.True(t, room.IsFull())
	return room
}

func TestEnqueue_PairsTwoUsersIntoOneRoom(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)

	room := fillRoom(t, s, "alice", "bob")
	require.Equal(t, "alice", room.User1ID)
	require.Equal(t, "bob", *room.User2ID)

	// A third user gets an independent room.
	third, err := s.Enqueue("carol")
	require.NoError(t, err)
	require.NotEqual(t, room.ID, third.ID)
	require.Equal(t, models.RoomSearching, third.Status)
}

func TestEnqueue_RejectsUserAlreadyInRoom(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)

	_, err := s.Enqueue("alice")
	require.NoError(t, err)

	_, err = s.Enqueue("alice")
	require.ErrorIs(t, err, ErrAlreadyMatching)

	// The check is symmetric: user2 of a battling room is rejected too.
	fillRoomErr := func() error {
		if _, err := s.Enqueue("bob"); err != nil {
			return err
		}
		_, err := s.Enqueue("bob")
		return err
	}
	require.ErrorIs(t, fillRoomErr(), ErrAlreadyMatching)
}

func TestEnqueue_FullRoomGetsTwoAttemptsPerQuestion(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)

	room := fillRoom(t, s, "alice", "bob")
	require.Equal(t, models.DefaultQuestionCount, room.QuestionCount)

	var attempts []models.TrackedQuestion
	require.NoError(t, db.Where("room_id = ?", room.ID).Find(&attempts).Error)
	require.Len(t, attempts, 2*models.DefaultQuestionCount)

	perUser := map[string]int{}
	for _, a := range attempts {
		require.Equal(t, models.AttemptBlank, a.Status)
		perUser[a.UserID]++
	}
	require.Equal(t, models.DefaultQuestionCount, perUser["alice"])
	require.Equal(t, models.DefaultQuestionCount, perUser["bob"])
}

func TestEnqueue_ShortQuestionPoolShrinksRoom(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 4)

	room := fillRoom(t, s, "alice", "bob")
	require.Equal(t, 4, room.QuestionCount)

	var count int64
	require.NoError(t, db.Model(&models.TrackedQuestion{}).Where("room_id = ?", room.ID).Count(&count).Error)
	require.EqualValues(t, 8, count)
}

func TestCancelSearch(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)

	room, err := s.Enqueue("alice")
	require.NoError(t, err)

	// Only the owner may cancel.
	require.ErrorIs(t, s.CancelSearch("bob", room.ID), ErrNotParticipant)
	require.NoError(t, s.CancelSearch("alice", room.ID))
	_, err = s.GetRoom(room.ID)
	require.ErrorIs(t, err, ErrRoomNotFound)

	// A battling room cannot be cancelled.
	battling := fillRoom(t, s, "carol", "dave")
	require.ErrorIs(t, s.CancelSearch("carol", battling.ID), ErrRoomNotSearching)
}

func TestGetEndTime_IsLazyAndIdempotent(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)
	room := fillRoom(t, s, "alice", "bob")

	end1, duration, err := s.GetEndTime(room.ID)
	require.NoError(t, err)
	require.Equal(t, models.DefaultBattleDuration, duration)

	reloaded, err := s.GetRoom(room.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.BattleStartTime)
	require.Equal(t, end1, reloaded.BattleStartTime.Add(time.Duration(duration)*time.Second))

	end2, _, err := s.GetEndTime(room.ID)
	require.NoError(t, err)
	require.Equal(t, end1, end2)
}

func TestSubmitAnswer(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)
	room := fillRoom(t, s, "alice", "bob")

	tracked, err := s.Progress(room.ID, "alice")
	require.NoError(t, err)
	require.Len(t, tracked, models.DefaultQuestionCount)

	updated, err := s.SubmitAnswer(tracked[0].ID, "alice", true)
	require.NoError(t, err)
	require.Equal(t, models.AttemptCorrect, updated.Status)

	// Only the owner may answer their slot.
	_, err = s.SubmitAnswer(tracked[1].ID, "bob", true)
	require.ErrorIs(t, err, ErrNotParticipant)

	// Last write wins by default.
	updated, err = s.SubmitAnswer(tracked[0].ID, "alice", false)
	require.NoError(t, err)
	require.Equal(t, models.AttemptIncorrect, updated.Status)

	// With resubmission disabled, overwrites are rejected.
	s.AllowResubmit = false
	_, err = s.SubmitAnswer(tracked[0].ID, "alice", true)
	require.ErrorIs(t, err, ErrResubmitNotAllowed)

	_, err = s.SubmitAnswer("no-such-id", "alice", true)
	require.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestOpponentProgress(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)
	room := fillRoom(t, s, "alice", "bob")

	bobTracked, err := s.Progress(room.ID, "bob")
	require.NoError(t, err)
	_, err = s.SubmitAnswer(bobTracked[2].ID, "bob", true)
	require.NoError(t, err)

	seen, err := s.OpponentProgress(room.ID, "alice")
	require.NoError(t, err)
	require.Len(t, seen, models.DefaultQuestionCount)
	require.Equal(t, models.AttemptCorrect, seen[2].Status)
	for i, a := range seen {
		require.Equal(t, "bob", a.UserID)
		require.Equal(t, i, a.Position)
	}

	_, err = s.OpponentProgress(room.ID, "mallory")
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestEndRoom_ResolvesRatingsAndSolvedCounts(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)
	room := fillRoom(t, s, "alice", "bob")

	// Alice 7, Bob 3 on a 10-question set.
	require.NoError(t, s.SetScore(room.ID, 7, 3))
	require.NoError(t, s.EndRoom(room.ID, EndTriggerExplicit, nil))

	ended, err := s.GetRoom(room.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoomEnded, ended.Status)
	require.NotNil(t, ended.WinnerID)
	require.Equal(t, "alice", *ended.WinnerID)

	alice, err := s.Profiles.GetProfile("alice")
	require.NoError(t, err)
	bob, err := s.Profiles.GetProfile("bob")
	require.NoError(t, err)

	wantAlice, wantBob := UpdateDuelRatings(ResultWin, 1500, 1500)
	require.Equal(t, wantAlice, alice.DuelRating)
	require.Equal(t, wantBob, bob.DuelRating)
	require.Equal(t, models.DefaultQuestionCount, alice.ProblemsSolved)
	require.Equal(t, models.DefaultQuestionCount, bob.ProblemsSolved)
}

func TestEndRoom_IsIdempotent(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)
	room := fillRoom(t, s, "alice", "bob")

	require.NoError(t, s.SetScore(room.ID, 5, 2))
	require.NoError(t, s.EndRoom(room.ID, EndTriggerExplicit, nil))

	alice, err := s.Profiles.GetProfile("alice")
	require.NoError(t, err)
	ratingAfterFirstEnd := alice.DuelRating

	// A second end (e.g. the timeout sweep racing the client) changes nothing.
	require.NoError(t, s.EndRoom(room.ID, EndTriggerTimeout, nil))

	alice, err = s.Profiles.GetProfile("alice")
	require.NoError(t, err)
	require.Equal(t, ratingAfterFirstEnd, alice.DuelRating)
	require.Equal(t, models.DefaultQuestionCount, alice.ProblemsSolved)
}

func TestEndRoom_TieLeavesRatingsUntouched(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)
	room := fillRoom(t, s, "alice", "bob")

	require.NoError(t, s.SetScore(room.ID, 4, 4))
	require.NoError(t, s.EndRoom(room.ID, EndTriggerExplicit, nil))

	ended, err := s.GetRoom(room.ID)
	require.NoError(t, err)
	require.Nil(t, ended.WinnerID)

	// Equal ratings and a draw: both stay at the seed.
	alice, err := s.Profiles.GetProfile("alice")
	require.NoError(t, err)
	require.Equal(t, 1500, alice.DuelRating)
}

func TestResolveWinner(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)
	room := fillRoom(t, s, "alice", "bob")

	require.NoError(t, s.ResolveWinner(room.ID, "bob"))

	ended, err := s.GetRoom(room.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoomEnded, ended.Status)
	require.Equal(t, "bob", *ended.WinnerID)

	bob, err := s.Profiles.GetProfile("bob")
	require.NoError(t, err)
	wantBob, _ := UpdateDuelRatings(ResultWin, 1500, 1500)
	require.Equal(t, wantBob, bob.DuelRating)
}

func TestResolveWinner_TieEndsRoomAsDraw(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)
	room := fillRoom(t, s, "alice", "bob")

	require.NoError(t, s.ResolveWinner(room.ID, "Tie"))

	ended, err := s.GetRoom(room.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoomEnded, ended.Status)
	require.Nil(t, ended.WinnerID)
}

func TestSetScore_FreezesAfterEnd(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)
	room := fillRoom(t, s, "alice", "bob")

	require.NoError(t, s.SetScore(room.ID, 6, 1))
	require.NoError(t, s.EndRoom(room.ID, EndTriggerExplicit, nil))
	require.NoError(t, s.SetScore(room.ID, 0, 9))

	ended, err := s.GetRoom(room.ID)
	require.NoError(t, err)
	require.Equal(t, 6, ended.User1Score)
	require.Equal(t, 1, ended.User2Score)

	require.ErrorIs(t, s.SetScore("missing-room", 1, 1), ErrRoomNotFound)
}

func TestSweepExpired(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)
	room := fillRoom(t, s, "alice", "bob")

	_, _, err := s.GetEndTime(room.ID)
	require.NoError(t, err)
	require.NoError(t, s.SetScore(room.ID, 2, 8))

	// Not yet expired: the sweep leaves the room alone.
	s.SweepExpired(time.Now().UTC())
	current, err := s.GetRoom(room.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoomBattling, current.Status)

	// Past the window the sweep resolves it like an explicit end.
	s.SweepExpired(time.Now().UTC().Add(time.Duration(room.BattleDuration+1) * time.Second))
	current, err = s.GetRoom(room.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoomEnded, current.Status)
	require.Equal(t, "bob", *current.WinnerID)
}

func TestHistoryAndRejoin(t *testing.T) {
	db := openTestDB(t)
	s := newMatchService(db)
	seedDefaultQuestions(t, db, 15)

	room := fillRoom(t, s, "alice", "bob")

	battling, searching, err := s.Rejoin("alice")
	require.NoError(t, err)
	require.NotNil(t, battling)
	require.Equal(t, room.ID, battling.ID)
	require.Nil(t, searching)

	require.NoError(t, s.EndRoom(room.ID, EndTriggerExplicit, nil))

	history, err := s.History("alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, room.ID, history[0].ID)

	// After the room ended alice can search again; rejoin reports it.
	fresh, err := s.Enqueue("alice")
	require.NoError(t, err)
	battling, searching, err = s.Rejoin("alice")
	require.NoError(t, err)
	require.Nil(t, battling)
	require.NotNil(t, searching)
	require.Equal(t, fresh.ID, searching.ID)
}
