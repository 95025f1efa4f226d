package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gearshop/storefront/api/web"
	"github.com/gearshop/storefront/api/weberr"
	"github.com/gearshop/storefront/core/cart"
	"github.com/gearshop/storefront/core/claims"
	"github.com/gearshop/storefront/core/user"
	"github.com/gearshop/storefront/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

func HandleSignup(db *sqlx.DB, session *scs.SessionManager, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var us user.UserSignup
		if err := web.Decode(w, r, &us); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(us); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if _, err := user.FetchByEmail(ctx, db, us.Email); err == nil {
			err := errors.New("email already in use")
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		} else if !errors.Is(err, user.ErrNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(us.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		usr := user.User{
			ID:           validate.GenerateID(),
			Name:         us.Name,
			Email:        us.Email,
			Role:         claims.RoleUser,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(ctx, db, usr); err != nil {
			return err
		}

		ctx, err = establishSession(ctx, db, session, usr, log)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, usr, http.StatusCreated)
	}
}

func HandleLogin(db *sqlx.DB, session *scs.SessionManager, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var ul user.UserLogin
		if err := web.Decode(w, r, &ul); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(ul); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		usr, err := user.FetchByEmail(ctx, db, ul.Email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return weberr.NotAuthorized(errors.New("invalid credentials"))
			}
			return err
		}

		if err := bcrypt.CompareHashAndPassword(usr.PasswordHash, []byte(ul.Password)); err != nil {
			return weberr.NotAuthorized(errors.New("invalid credentials"))
		}

		ctx, err = establishSession(ctx, db, session, usr, log)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := session.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// establishSession renews the session token, stores the user's identity
// in the session and folds the guest cart into the user's cart. A merge
// failure is logged, never returned: login must not fail because of the cart.
func establishSession(ctx context.Context, db *sqlx.DB, session *scs.SessionManager, usr user.User, log logrus.FieldLogger) (context.Context, error) {
	if err := session.RenewToken(ctx); err != nil {
		return ctx, fmt.Errorf("renewing session token: %w", err)
	}

	session.Put(ctx, sessionUserKey, usr.ID)
	session.Put(ctx, sessionRoleKey, usr.Role)

	ctx = claims.Set(ctx, claims.Claims{UserID: usr.ID, Role: usr.Role})

	if err := cart.MergeGuestCart(ctx, db, session); err != nil {
		log.WithFields(logrus.Fields{
			"user_id": usr.ID,
			"message": err,
		}).Error("merging guest cart failed")
	}

	return ctx, nil
}
