package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/candemet/matchup/models"
	"github.com/candemet/matchup/repositories"
)

type ClubService interface {
	List(ctx context.Context) ([]*models.Club, error)
	Join(ctx context.Context, userID, clubID int) error
	Leave(ctx context.Context, userID int) error
}

type clubService struct {
	clubRepo repositories.ClubRepository
}

func NewClubService(clubRepo repositories.ClubRepository) ClubService {
	return &clubService{
		clubRepo: clubRepo,
	}
}

func (s *clubService) List(ctx context.Context) ([]*models.Club, error) {
	clubs, err := s.clubRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	return clubs, nil
}

func (s *clubService) Join(ctx context.Context, userID, clubID int) error {
	// Пользователь может состоять только в одном клубе.
	if _, err := s.clubRepo.GetMembership(ctx, nil, userID); err == nil {
		return ErrClubAlreadyJoined
	} else if !errors.Is(err, repositories.ErrMemberNotInClub) {
		return fmt.Errorf("failed to check membership for user %d: %w", userID, err)
	}

	if _, err := s.clubRepo.GetByID(ctx, nil, clubID); err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return ErrClubNotFound
		}
		return fmt.Errorf("failed to load club %d: %w", clubID, err)
	}

	if err := s.clubRepo.AddMember(ctx, nil, userID, clubID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrMemberAlreadyInClub):
			return ErrClubAlreadyJoined
		case errors.Is(err, repositories.ErrClubNotFound):
			return ErrClubNotFound
		}
		return fmt.Errorf("failed to join club %d: %w", clubID, err)
	}
	return nil
}

func (s *clubService) Leave(ctx context.Context, userID int) error {
	if err := s.clubRepo.RemoveMember(ctx, nil, userID); err != nil {
		if errors.Is(err, repositories.ErrMemberNotInClub) {
			return ErrClubNotJoined
		}
		return fmt.Errorf("failed to leave club: %w", err)
	}
	return nil
}
