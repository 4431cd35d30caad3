package notify

import (
	"context"
	"fmt"
	"log"

	orderDomain "shop-backoffice/internal/domain/order"
)

// OrderNotifier 把付款完成的訂單推送到 Telegram。
// 通知失敗只記 log，不影響訂單流程。
type OrderNotifier struct {
	client *TelegramClient
}

func NewOrderNotifier(client *TelegramClient) *OrderNotifier {
	return &OrderNotifier{client: client}
}

func (n *OrderNotifier) OrderPaid(ctx context.Context, o orderDomain.Order) {
	text := fmt.Sprintf("訂單付款完成\n編號: %s\n顧客: %s\n金額: %d.%02d\n品項數: %d",
		o.ID, o.CustomerID, o.TotalCents/100, o.TotalCents%100, len(o.Items))
	if err := n.client.SendMessage(ctx, text); err != nil {
		log.Printf("[Notify] telegram push failed for order %s: %v", o.ID, err)
	}
}
