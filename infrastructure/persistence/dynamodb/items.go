package dynamodb

import (
	"fmt"
	"strings"
	"time"

	"catnook-backend/domain/core/entities"
	"catnook-backend/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	entityCat         = "CAT"
	entityAccount     = "ACCOUNT"
	entityInteraction = "INTERACTION"
	entityUsername    = "USERNAME"

	profileSK            = "PROFILE"
	interactionSKPrefix  = "INTERACTION#"
	adoptablePartition   = "ADOPTABLE"
	deceasedPartition    = "DECEASED"
	interactionPartition = "INTERACTIONS"
)

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func catPK(id valueobjects.CatID) string { return fmt.Sprintf("CAT#%d", int64(id)) }
func userPK(id valueobjects.UserID) string { return fmt.Sprintf("USER#%d", int64(id)) }
func ownerPK(id valueobjects.UserID) string { return fmt.Sprintf("OWNER#%d", int64(id)) }
func counterPK(name string) string { return "COUNTER#" + name }
func usernamePK(username string) string {
	return "USERNAME#" + strings.ToLower(strings.TrimSpace(username))
}

// zero padded so lexical order is numeric order
func sortableID(id int64) string { return fmt.Sprintf("%020d", id) }

func interactionSK(at time.Time, id valueobjects.InteractionID) string {
	return fmt.Sprintf("%s%013d#%s", interactionSKPrefix, at.UnixMilli(), sortableID(int64(id)))
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

func millisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := toMillis(*t)
	return &v
}

func timePtr(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := fromMillis(*v)
	return &t
}

type catItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	GSI1PK      string `dynamodbav:"GSI1PK"`
	GSI1SK      string `dynamodbav:"GSI1SK"`
	EntityType  string `dynamodbav:"EntityType"`
	CatID       int64  `dynamodbav:"CatID"`
	Name        string `dynamodbav:"Name"`
	Skin        string `dynamodbav:"Skin"`
	Personality string `dynamodbav:"Personality"`
	Avatar      string `dynamodbav:"Avatar"`
	Mood        int    `dynamodbav:"Mood"`
	Patience    int    `dynamodbav:"Patience"`
	LastFeedAt  *int64 `dynamodbav:"LastFeedAt,omitempty"`
	DeathFlag   int    `dynamodbav:"DeathFlag"`
	IsAlive     bool   `dynamodbav:"IsAlive"`
	OwnerID     *int64 `dynamodbav:"OwnerID,omitempty"`
	Version     int64  `dynamodbav:"Version"`
	CreatedAt   int64  `dynamodbav:"CreatedAt"`
	UpdatedAt   int64  `dynamodbav:"UpdatedAt"`
}

// catPartition decides which GSI1 listing the cat shows up in
func catPartition(s entities.CatSnapshot) string {
	switch {
	case s.OwnerID != nil:
		return ownerPK(*s.OwnerID)
	case s.IsAlive:
		return adoptablePartition
	default:
		return deceasedPartition
	}
}

func newCatItem(s entities.CatSnapshot) catItem {
	item := catItem{
		PK:          catPK(s.ID),
		SK:          profileSK,
		GSI1PK:      catPartition(s),
		GSI1SK:      "CAT#" + sortableID(int64(s.ID)),
		EntityType:  entityCat,
		CatID:       int64(s.ID),
		Name:        s.Name,
		Skin:        s.Skin,
		Personality: s.Personality,
		Avatar:      s.Avatar,
		Mood:        s.Mood,
		Patience:    s.Patience,
		LastFeedAt:  millisPtr(s.LastFeedDate),
		DeathFlag:   s.DeathFlag,
		IsAlive:     s.IsAlive,
		Version:     s.Version,
		CreatedAt:   toMillis(s.CreatedAt),
		UpdatedAt:   toMillis(s.UpdatedAt),
	}
	if s.OwnerID != nil {
		owner := int64(*s.OwnerID)
		item.OwnerID = &owner
	}
	return item
}

func (i catItem) toEntity() *entities.Cat {
	s := entities.CatSnapshot{
		ID:           valueobjects.CatID(i.CatID),
		Name:         i.Name,
		Skin:         i.Skin,
		Personality:  i.Personality,
		Avatar:       i.Avatar,
		Mood:         i.Mood,
		Patience:     i.Patience,
		LastFeedDate: timePtr(i.LastFeedAt),
		DeathFlag:    i.DeathFlag,
		IsAlive:      i.IsAlive,
		Version:      i.Version,
		CreatedAt:    fromMillis(i.CreatedAt),
		UpdatedAt:    fromMillis(i.UpdatedAt),
	}
	if i.OwnerID != nil {
		owner := valueobjects.UserID(*i.OwnerID)
		s.OwnerID = &owner
	}
	return entities.ReconstructCat(s)
}

type accountItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	UserID      int64  `dynamodbav:"UserID"`
	Username    string `dynamodbav:"Username"`
	Email       string `dynamodbav:"Email"`
	Role        string `dynamodbav:"Role"`
	Bio         string `dynamodbav:"Bio"`
	Yarn        int64  `dynamodbav:"Yarn"`
	LastLoginAt *int64 `dynamodbav:"LastLoginAt,omitempty"`
	CreatedAt   int64  `dynamodbav:"CreatedAt"`
}

func newAccountItem(s entities.AccountSnapshot) accountItem {
	return accountItem{
		PK:          userPK(s.ID),
		SK:          profileSK,
		EntityType:  entityAccount,
		UserID:      int64(s.ID),
		Username:    s.Username,
		Email:       s.Email,
		Role:        s.Role,
		Bio:         s.Bio,
		Yarn:        s.Yarn,
		LastLoginAt: millisPtr(s.LastLoginDate),
		CreatedAt:   toMillis(s.CreatedAt),
	}
}

func (i accountItem) toEntity() *entities.Account {
	return entities.ReconstructAccount(entities.AccountSnapshot{
		ID:            valueobjects.UserID(i.UserID),
		Username:      i.Username,
		Email:         i.Email,
		Role:          i.Role,
		Bio:           i.Bio,
		Yarn:          i.Yarn,
		LastLoginDate: timePtr(i.LastLoginAt),
		CreatedAt:     fromMillis(i.CreatedAt),
	})
}

type usernameItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     int64  `dynamodbav:"UserID"`
}

type interactionItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	GSI2PK        string `dynamodbav:"GSI2PK"`
	GSI2SK        string `dynamodbav:"GSI2SK"`
	EntityType    string `dynamodbav:"EntityType"`
	InteractionID int64  `dynamodbav:"InteractionID"`
	Kind          string `dynamodbav:"Kind"`
	Cost          int64  `dynamodbav:"Cost"`
	InteractionAt int64  `dynamodbav:"InteractionAt"`
	CatID         int64  `dynamodbav:"CatID"`
	UserID        int64  `dynamodbav:"UserID"`
	Description   string `dynamodbav:"Description"`
}

func newInteractionItem(s entities.InteractionSnapshot) interactionItem {
	return interactionItem{
		PK:            catPK(s.CatID),
		SK:            interactionSK(s.Date, s.ID),
		GSI2PK:        interactionPartition,
		GSI2SK:        sortableID(int64(s.ID)),
		EntityType:    entityInteraction,
		InteractionID: int64(s.ID),
		Kind:          s.Kind.String(),
		Cost:          s.Cost,
		InteractionAt: toMillis(s.Date),
		CatID:         int64(s.CatID),
		UserID:        int64(s.UserID),
		Description:   s.Description,
	}
}

func (i interactionItem) toEntity() *entities.Interaction {
	return entities.ReconstructInteraction(entities.InteractionSnapshot{
		ID:          valueobjects.InteractionID(i.InteractionID),
		Kind:        valueobjects.InteractionKind(i.Kind),
		Cost:        i.Cost,
		Date:        fromMillis(i.InteractionAt),
		CatID:       valueobjects.CatID(i.CatID),
		UserID:      valueobjects.UserID(i.UserID),
		Description: i.Description,
	})
}
