package bot

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Отслеживания"

// exportToExcel создает Excel файл с текущими отслеживаемыми запросами
func (b *Bot) exportToExcel() (string, error) {
	if err := os.MkdirAll(b.cfg.Exports.Path, 0755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Чат", "Откуда", "Куда", "Пассажиры", "Дата", "Время", "Этап"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}

	row := 2
	for _, q := range b.store.All() {
		if len(q.Schedule) == 0 {
			b.writeExportRow(f, row, q.ChatID, q.Origin, q.Destination, q.Passengers, "", "", string(q.Stage))
			row++
			continue
		}
		for _, entry := range q.Schedule {
			b.writeExportRow(f, row, q.ChatID, q.Origin, q.Destination, q.Passengers, entry.Date, entry.Time, string(q.Stage))
			row++
		}
	}

	filePath := filepath.Join(b.cfg.Exports.Path,
		fmt.Sprintf("tracking_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	return filePath, nil
}

func (b *Bot) writeExportRow(f *excelize.File, row int, chatID int64, origin, destination string, passengers int, date, timeOfDay, stage string) {
	values := []interface{}{chatID, origin, destination, passengers, date, timeOfDay, stage}
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(exportSheet, cell, v)
	}
}

// handleExport выгрузка текущих отслеживаний менеджеру файлом
func (b *Bot) handleExport(chatID int64) {
	filePath, err := b.exportToExcel()
	if err != nil {
		log.Printf("Error exporting to Excel: %v", err)
		b.send.SendText(chatID, "Ошибка при создании файла экспорта")
		return
	}

	file, err := os.Open(filePath)
	if err != nil {
		log.Printf("Error opening file: %v", err)
		b.send.SendText(chatID, "Ошибка при открытии файла")
		return
	}
	defer file.Close()

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{
		Name:   filepath.Base(filePath),
		Reader: file,
	})
	doc.Caption = fmt.Sprintf("📊 Отслеживаемые запросы на %s", time.Now().Format("02.01.2006 15:04"))

	if _, err := b.api.Send(doc); err != nil {
		log.Printf("Error sending document: %v", err)
		b.send.SendText(chatID, "Ошибка при отправке файла")
	}
}
