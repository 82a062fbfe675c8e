package service

import (
	"docmind-be/internal/dto"
	"docmind-be/internal/entity"
	"docmind-be/pkg/store"

	"github.com/google/uuid"
)

func turnFromEntity(msg *entity.ChatMessage) store.Turn {
	return store.Turn{
		Id:        msg.Id.String(),
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func turnsFromEntities(msgs []*entity.ChatMessage) []store.Turn {
	turns := make([]store.Turn, len(msgs))
	for i, m := range msgs {
		turns[i] = turnFromEntity(m)
	}
	return turns
}

func turnsToResponse(turns []store.Turn) []*dto.ChatMessageResponse {
	response := make([]*dto.ChatMessageResponse, 0, len(turns))
	for _, t := range turns {
		id, _ := uuid.Parse(t.Id)
		response = append(response, &dto.ChatMessageResponse{
			Id:        id,
			Role:      t.Role,
			Content:   t.Content,
			CreatedAt: t.CreatedAt,
		})
	}
	return response
}
