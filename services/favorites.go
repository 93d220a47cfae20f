package services

import (
	"fmt"
	"time"

	"github.com/alphabatem/common/context"

	"github.com/lchelper/hints_api/dto"
	"github.com/lchelper/hints_api/model"
	"github.com/lchelper/hints_api/shared"
)

// freeTierFavoritesLimit caps the saved problem list for free users.
const freeTierFavoritesLimit = 50

// FavoritesService manages the per-user saved problem list.
type FavoritesService struct {
	context.DefaultService

	sqlSvc *SqliteService
	subSvc *SubscriptionService
}

const FAVORITES_SVC = "favorites_svc"

func (svc FavoritesService) Id() string {
	return FAVORITES_SVC
}

func (svc *FavoritesService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.subSvc = svc.Service(SUBSCRIPTION_SVC).(*SubscriptionService)
	return nil
}

func (svc *FavoritesService) List(userID string) ([]dto.FavoriteResponse, error) {
	favorites, err := svc.sqlSvc.ListFavorites(userID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	resp := make([]dto.FavoriteResponse, 0, len(favorites))
	for _, f := range favorites {
		resp = append(resp, toFavoriteResponse(f))
	}
	return resp, nil
}

// Add upserts the favorite. Re-adding an existing problem refreshes its
// metadata instead of erroring.
func (svc *FavoritesService) Add(userID string, req dto.AddFavoriteRequest) (*dto.FavoriteResponse, error) {
	exists, err := svc.sqlSvc.HasFavorite(userID, req.ProblemID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	// The cap only applies to net-new rows; re-adding refreshes metadata.
	if !exists {
		tier, err := svc.subSvc.TierFor(userID)
		if err != nil {
			return nil, svc.sqlSvc.HandleError(err)
		}
		if tier == TierFree {
			count, err := svc.sqlSvc.CountFavorites(userID)
			if err != nil {
				return nil, svc.sqlSvc.HandleError(err)
			}
			if count >= freeTierFavoritesLimit {
				return nil, shared.ErrPaymentRequired(fmt.Sprintf("Free tier limited to %d favorites. Upgrade to premium for unlimited favorites.", freeTierFavoritesLimit))
			}
		}
	}

	favorite := &model.Favorite{
		UserID:     userID,
		ProblemID:  req.ProblemID,
		URL:        req.URL,
		Title:      req.Title,
		Platform:   req.Platform,
		Difficulty: req.Difficulty,
		AddedAt:    time.Now(),
	}

	if err := svc.sqlSvc.SaveFavorite(favorite); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	resp := toFavoriteResponse(*favorite)
	return &resp, nil
}

func (svc *FavoritesService) Remove(userID, problemID string) error {
	has, err := svc.sqlSvc.HasFavorite(userID, problemID)
	if err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	if !has {
		return shared.ErrNotFound("Favorite not found")
	}
	return svc.sqlSvc.HandleError(svc.sqlSvc.DeleteFavorite(userID, problemID))
}

func (svc *FavoritesService) Check(userID, problemID string) (*dto.FavoriteCheckResponse, error) {
	has, err := svc.sqlSvc.HasFavorite(userID, problemID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return &dto.FavoriteCheckResponse{Favorited: has}, nil
}

func toFavoriteResponse(f model.Favorite) dto.FavoriteResponse {
	return dto.FavoriteResponse{
		ProblemID:  f.ProblemID,
		URL:        f.URL,
		Title:      f.Title,
		Platform:   f.Platform,
		Difficulty: f.Difficulty,
		AddedAt:    f.AddedAt,
	}
}
