package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medbank/internal/model"
)

// TaxonomyRepo handles MongoDB operations for themes, subthemes and
// groups.
type TaxonomyRepo interface {
	CreateTheme(ctx context.Context, t *model.Theme) error
	CreateSubtheme(ctx context.Context, s *model.Subtheme) error
	CreateGroup(ctx context.Context, g *model.Group) error

	GetTheme(ctx context.Context, id string) (*model.Theme, error)
	GetSubtheme(ctx context.Context, id string) (*model.Subtheme, error)
	GetGroup(ctx context.Context, id string) (*model.Group, error)

	ListThemes(ctx context.Context, tenantID string) ([]*model.Theme, error)

	// AncestryMaps builds the group->subtheme and subtheme->theme maps
	// for a tenant in two indexed scans.
	AncestryMaps(ctx context.Context, tenantID string) (map[string]string, map[string]string, error)
}

type taxonomyRepo struct {
	themes    *mongo.Collection
	subthemes *mongo.Collection
	groups    *mongo.Collection
}

// NewTaxonomyRepo creates a new taxonomy repository.
func NewTaxonomyRepo(db *mongo.Database) TaxonomyRepo {
	return &taxonomyRepo{
		themes:    db.Collection("themes"),
		subthemes: db.Collection("subthemes"),
		groups:    db.Collection("groups"),
	}
}

func (r *taxonomyRepo) CreateTheme(ctx context.Context, t *model.Theme) error {
	if t.ID == "" {
		t.ID = primitive.NewObjectID().Hex()
	}
	t.CreatedAt = time.Now()
	_, err := r.themes.InsertOne(ctx, t)
	return err
}

func (r *taxonomyRepo) CreateSubtheme(ctx context.Context, s *model.Subtheme) error {
	if s.ID == "" {
		s.ID = primitive.NewObjectID().Hex()
	}
	s.CreatedAt = time.Now()
	_, err := r.subthemes.InsertOne(ctx, s)
	return err
}

func (r *taxonomyRepo) CreateGroup(ctx context.Context, g *model.Group) error {
	if g.ID == "" {
		g.ID = primitive.NewObjectID().Hex()
	}
	g.CreatedAt = time.Now()
	_, err := r.groups.InsertOne(ctx, g)
	return err
}

func (r *taxonomyRepo) GetTheme(ctx context.Context, id string) (*model.Theme, error) {
	var t model.Theme
	err := r.themes.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *taxonomyRepo) GetSubtheme(ctx context.Context, id string) (*model.Subtheme, error) {
	var s model.Subtheme
	err := r.subthemes.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *taxonomyRepo) GetGroup(ctx context.Context, id string) (*model.Group, error) {
	var g model.Group
	err := r.groups.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *taxonomyRepo) ListThemes(ctx context.Context, tenantID string) ([]*model.Theme, error) {
	cur, err := r.themes.Find(ctx, bson.M{"tenantId": tenantID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var themes []*model.Theme
	if err := cur.All(ctx, &themes); err != nil {
		return nil, err
	}
	return themes, nil
}

func (r *taxonomyRepo) AncestryMaps(ctx context.Context, tenantID string) (map[string]string, map[string]string, error) {
	groupToSubtheme := make(map[string]string)
	subthemeToTheme := make(map[string]string)

	cur, err := r.groups.Find(ctx, bson.M{"tenantId": tenantID},
		options.Find().SetProjection(bson.M{"_id": 1, "subthemeId": 1}))
	if err != nil {
		return nil, nil, err
	}
	var groups []struct {
		ID         string `bson:"_id"`
		SubthemeID string `bson:"subthemeId"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, nil, err
	}
	for _, g := range groups {
		groupToSubtheme[g.ID] = g.SubthemeID
	}

	cur, err = r.subthemes.Find(ctx, bson.M{"tenantId": tenantID},
		options.Find().SetProjection(bson.M{"_id": 1, "themeId": 1}))
	if err != nil {
		return nil, nil, err
	}
	var subthemes []struct {
		ID      string `bson:"_id"`
		ThemeID string `bson:"themeId"`
	}
	if err := cur.All(ctx, &subthemes); err != nil {
		return nil, nil, err
	}
	for _, s := range subthemes {
		subthemeToTheme[s.ID] = s.ThemeID
	}

	return groupToSubtheme, subthemeToTheme, nil
}
