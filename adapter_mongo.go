package sift

import (
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BuildMongoFilter converts a predicate tree into a MongoDB filter
// document.
func BuildMongoFilter(e Expr) bson.M {
	return mongoExpr(e, "")
}

// BuildMongoFindOptions produces find options from the descriptor:
// sort, limit, skip and field projection.
func BuildMongoFindOptions(q *Query) *options.FindOptions {
	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}
	if len(q.Order) > 0 {
		var sd bson.D
		for _, s := range q.Order {
			order := 1
			if s.Desc {
				order = -1
			}
			sd = append(sd, bson.E{Key: mongoField(s.Column, ""), Value: order})
		}
		opts.SetSort(sd)
	}
	if len(q.Fields) > 0 {
		var pd bson.D
		for _, f := range q.Fields {
			pd = append(pd, bson.E{Key: f, Value: 1})
		}
		opts.SetProjection(pd)
	}
	return opts
}

// BuildMongoFind returns the filter and options for a plain Find.
func BuildMongoFind(q *Query) (bson.M, *options.FindOptions) {
	return BuildMongoFilter(q.Where), BuildMongoFindOptions(q)
}

// BuildMongoPipeline builds an aggregation pipeline for a descriptor
// with includes: an optional root $match, then a $lookup per include
// driven by the relation's key pair, then a qualified $match for each
// include scope.
func BuildMongoPipeline(q *Query) mongo.Pipeline {
	pipeline := mongo.Pipeline{}

	if root := BuildMongoFilter(q.Where); len(root) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: root}})
	}

	for _, inc := range q.Includes {
		rel := inc.Relation
		from := rel.Target
		if inc.Query != nil && inc.Query.Model != nil {
			from = inc.Query.Model.Table
		}
		pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "localField", Value: rel.References},
			{Key: "foreignField", Value: rel.ForeignKey},
			{Key: "as", Value: rel.Name},
		}}})
		if inc.Query != nil {
			if m := mongoExpr(inc.Query.Where, rel.Name); len(m) > 0 {
				pipeline = append(pipeline, bson.D{{Key: "$match", Value: m}})
			}
		}
	}

	if q.Offset > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(q.Offset)}})
	}
	if q.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(q.Limit)}})
	}
	return pipeline
}

// mongoField flattens a column reference into Mongo dot notation,
// optionally under a qualifier for $lookup output.
func mongoField(c Column, qualifier string) string {
	parts := make([]string, 0, len(c.Path)+2)
	if qualifier != "" {
		parts = append(parts, qualifier)
	}
	parts = append(parts, c.Name)
	parts = append(parts, c.Path...)
	return strings.Join(parts, ".")
}

func mongoExpr(e Expr, qualifier string) bson.M {
	q := func(c Column) string { return mongoField(c, qualifier) }
	switch x := e.(type) {
	case TrueExpr:
		return bson.M{}
	case FalseExpr:
		return bson.M{"$expr": false}
	case EqExpr:
		return bson.M{q(x.Column): x.Value}
	case NeqExpr:
		return bson.M{q(x.Column): bson.M{"$ne": x.Value}}
	case GtExpr:
		return bson.M{q(x.Column): bson.M{"$gt": x.Value}}
	case GteExpr:
		return bson.M{q(x.Column): bson.M{"$gte": x.Value}}
	case LtExpr:
		return bson.M{q(x.Column): bson.M{"$lt": x.Value}}
	case LteExpr:
		return bson.M{q(x.Column): bson.M{"$lte": x.Value}}
	case InExpr:
		// an empty $in list already matches nothing
		return bson.M{q(x.Column): bson.M{"$in": x.Values}}
	case NotInExpr:
		// $ne null carries the SQL NOT-IN semantics of dropping NULL rows
		return bson.M{q(x.Column): bson.M{"$nin": x.Values, "$ne": nil}}
	case LikeExpr:
		return bson.M{q(x.Column): bson.M{"$regex": likeToRegex(x.Value)}}
	case ILikeExpr:
		return bson.M{q(x.Column): bson.M{"$regex": likeToRegex(x.Value), "$options": "i"}}
	case NotLikeExpr:
		return bson.M{q(x.Column): bson.M{"$not": likeToRegex(x.Value)}}
	case BetweenExpr:
		return bson.M{q(x.Column): bson.M{"$gte": x.Low, "$lte": x.High}}
	case NotBetweenExpr:
		return bson.M{q(x.Column): bson.M{"$not": bson.M{"$gte": x.Low, "$lte": x.High}}}
	case IsNullExpr:
		return bson.M{q(x.Column): bson.M{"$exists": false}}
	case NotNullExpr:
		return bson.M{q(x.Column): bson.M{"$exists": true}}
	case ContainsExpr:
		return bson.M{q(x.Column): bson.M{"$all": x.Values}}
	case ContainedByExpr:
		// every element must come from the candidate list
		return bson.M{q(x.Column): bson.M{"$not": bson.M{"$elemMatch": bson.M{"$nin": x.Values}}}}
	case OverlapsExpr:
		// $in against an array field matches on any shared element
		return bson.M{q(x.Column): bson.M{"$in": x.Values}}
	case AndExpr:
		parts := make([]bson.M, 0, len(x.Operands))
		for _, op := range x.Operands {
			if m := mongoExpr(op, qualifier); len(m) > 0 {
				parts = append(parts, m)
			}
		}
		if len(parts) == 0 {
			return bson.M{}
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return bson.M{"$and": parts}
	case OrExpr:
		parts := make([]bson.M, 0, len(x.Operands))
		for _, op := range x.Operands {
			m := mongoExpr(op, qualifier)
			if len(m) == 0 {
				// one always-true alternative makes the whole OR true
				return bson.M{}
			}
			parts = append(parts, m)
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return bson.M{"$or": parts}
	default:
		return bson.M{}
	}
}

func likeToRegex(v any) *regexp.Regexp {
	// SQL-like %pattern% into an anchored Go regex
	var s string
	switch x := v.(type) {
	case string:
		s = x
	default:
		s = fmt.Sprint(x)
	}
	pattern := regexp.QuoteMeta(s)
	pattern = strings.ReplaceAll(pattern, "%", ".*")
	pattern = strings.ReplaceAll(pattern, "_", ".")
	return regexp.MustCompile("^" + pattern + "$")
}
